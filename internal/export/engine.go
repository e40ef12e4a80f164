// Copyright 2025 CartWave, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/cartwavehq/cartwave-export/internal/cartwave"
	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
	"github.com/cartwavehq/cartwave-export/internal/fieldspec"
	"github.com/cartwavehq/cartwave-export/internal/flatten"
	"github.com/cartwavehq/cartwave-export/internal/metadata"
	"github.com/cartwavehq/cartwave-export/internal/output"
	"github.com/cartwavehq/cartwave-export/pkg/version"
)

// ClientFactory builds the platform client once credentials are resolved.
// Tests swap it for a factory returning a mock.
type ClientFactory func(baseURL, projectKey, accessToken string) cartwave.Client

// Engine runs one export: resolve credentials and fields, then pull pages
// sequentially, flattening and writing every record before the next fetch.
type Engine struct {
	cfg         Config
	newClient   ClientFactory
	tokenSource cartwave.TokenSource
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClientFactory replaces the REST client constructor.
func WithClientFactory(fn ClientFactory) Option {
	return func(e *Engine) {
		e.newClient = fn
	}
}

// WithTokenSource replaces credential resolution.
func WithTokenSource(ts cartwave.TokenSource) Option {
	return func(e *Engine) {
		e.tokenSource = ts
	}
}

// New creates an Engine for cfg. By default it talks to the real platform:
// a static token source when cfg.AccessToken is set, a client-credentials
// exchange otherwise.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		newClient: func(baseURL, projectKey, accessToken string) cartwave.Client {
			return cartwave.NewRESTClient(baseURL, projectKey, accessToken)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tokenSource == nil {
		if cfg.AccessToken != "" {
			e.tokenSource = cartwave.NewStaticTokenSource(cfg.AccessToken)
		} else {
			e.tokenSource = cartwave.NewClientCredentialsSource(cfg.AuthURL, cfg.ClientID, cfg.ClientSecret, cfg.ProjectKey)
		}
	}
	return e
}

// Run executes the export and streams rows to sink. The caller owns the
// sink's lifecycle; Run never closes it.
//
// Credential resolution and field resolution run concurrently, since
// neither depends on the other. Everything after that join is strictly
// sequential: fetch a page, flatten and write each record, then decide
// whether another page exists. A page shorter than the batch size means
// the collection is exhausted.
func (e *Engine) Run(ctx context.Context, sink io.Writer) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	creds, fields, err := e.resolveStartup(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("startup resolved", "fields", len(fields), "project", e.cfg.ProjectKey)

	client := e.newClient(e.cfg.APIURL, e.cfg.ProjectKey, creds.AccessToken)

	writer, err := output.ForFormat(e.cfg.Format, sink, e.cfg.delimiterRune())
	if err != nil {
		return nil, err
	}
	if err := writer.Begin(fields); err != nil {
		return nil, err
	}
	defer writer.Finish()

	tracker := metadata.New()
	flattener := flatten.New(e.cfg.Language, e.cfg.MultiValueDelimiter)
	started := time.Now()

	slog.Info("export started",
		"project", e.cfg.ProjectKey,
		"format", e.cfg.Format,
		"batch_size", e.cfg.BatchSize)

	var offset int64
	for {
		page, err := client.FetchDiscountCodes(ctx, cartwave.FetchOptions{
			Limit:     e.cfg.BatchSize,
			Offset:    offset,
			Predicate: e.cfg.Predicate,
		})
		if err != nil {
			if errors.Is(err, cwerrors.ErrAuth) {
				return nil, err
			}
			return nil, &cwerrors.FetchError{Offset: offset, Err: err}
		}
		tracker.IncrementAPICall()
		tracker.AddPage(len(page.Results))

		for _, rec := range page.Results {
			if err := writer.Write(flattener.Flatten(rec, fields)); err != nil {
				return nil, err
			}
		}

		slog.Debug("page fetched",
			"offset", offset,
			"count", len(page.Results),
			"total", page.Total)

		if len(page.Results) < e.cfg.BatchSize {
			break
		}
		offset += int64(len(page.Results))
	}

	if err := writer.Finish(); err != nil {
		return nil, err
	}

	md := tracker.GenerateMetadata(version.Version, metadata.ExportParams{
		ProjectKey:   e.cfg.ProjectKey,
		Format:       e.cfg.Format,
		BatchSize:    e.cfg.BatchSize,
		Language:     e.cfg.Language,
		Predicate:    e.cfg.Predicate,
		TemplatePath: e.cfg.TemplatePath,
		Fields:       fields,
		Output:       e.cfg.Output,
	})
	if e.cfg.MetadataDir != "" {
		// A metadata write failure does not fail the export.
		if err := metadata.SaveMetadata(md, e.cfg.MetadataDir); err != nil {
			slog.Warn("failed to save run metadata", "error", err)
		}
	}

	result := &Result{
		Rows:     md.Results.Rows,
		Pages:    md.Results.Pages,
		APICalls: md.Results.APICallCount,
		Duration: time.Since(started),
		Fields:   fields,
	}

	slog.Info("export complete",
		"rows", result.Rows,
		"pages", result.Pages,
		"duration", result.Duration.Round(time.Millisecond).String())

	return result, nil
}

// resolveStartup resolves credentials and the field list concurrently and
// joins the outcomes. Both failures surface together so a user with a bad
// token and a bad template learns about both in one run.
func (e *Engine) resolveStartup(ctx context.Context) (*cartwave.Credentials, fieldspec.FieldSpec, error) {
	credsCh := make(chan credsResult, 1)
	fieldsCh := make(chan fieldsResult, 1)

	go func() {
		creds, err := e.tokenSource.Resolve(ctx)
		credsCh <- credsResult{creds, err}
	}()
	go func() {
		fields, err := e.resolveFields()
		fieldsCh <- fieldsResult{fields, err}
	}()

	cr := <-credsCh
	fr := <-fieldsCh
	if err := errors.Join(cr.err, fr.err); err != nil {
		return nil, nil, err
	}
	return cr.creds, fr.fields, nil
}

type credsResult struct {
	creds *cartwave.Credentials
	err   error
}

type fieldsResult struct {
	fields fieldspec.FieldSpec
	err    error
}

// resolveFields picks the field list: explicit override, then template,
// then per-format defaults.
func (e *Engine) resolveFields() (fieldspec.FieldSpec, error) {
	if len(e.cfg.Fields) > 0 {
		if err := fieldspec.Validate(e.cfg.Fields); err != nil {
			return nil, err
		}
		return fieldspec.FieldSpec(e.cfg.Fields), nil
	}
	if e.cfg.TemplatePath != "" {
		return fieldspec.FromTemplateFile(e.cfg.TemplatePath, e.cfg.Delimiter)
	}
	return fieldspec.Default(e.cfg.Format), nil
}
