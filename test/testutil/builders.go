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

package testutil

import (
	"fmt"
	"time"
)

// DiscountCodeBuilder provides a fluent API for creating test discount codes
type DiscountCodeBuilder struct {
	number          int
	id              string
	version         int
	code            string
	name            map[string]any
	description     map[string]any
	cartDiscounts   []string
	cartPredicate   string
	groups          []string
	isActive        bool
	validFrom       string
	validUntil      string
	maxApplications int
	maxPerCustomer  int
	customType      string
	customFields    map[string]any
	createdAt       time.Time
	lastModifiedAt  time.Time
}

// NewDiscountCodeBuilder creates a new discount-code builder with defaults
// shaped like the platform's responses.
func NewDiscountCodeBuilder(number int) *DiscountCodeBuilder {
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, number)
	return &DiscountCodeBuilder{
		number:  number,
		id:      fmt.Sprintf("dc-%04d", number),
		version: 1,
		code:    fmt.Sprintf("SAVE%d", number),
		name: map[string]any{
			"en": fmt.Sprintf("Save %d", number),
			"de": fmt.Sprintf("Spare %d", number),
		},
		description: map[string]any{
			"en": fmt.Sprintf("Test discount %d", number),
		},
		cartDiscounts:   []string{fmt.Sprintf("cd-%04d", number)},
		groups:          []string{"summer", "newsletter"},
		isActive:        true,
		validFrom:       "2025-06-01T00:00:00.000Z",
		validUntil:      "2025-08-31T23:59:59.000Z",
		maxApplications: 100,
		createdAt:       created,
		lastModifiedAt:  created.Add(time.Hour),
	}
}

// WithCode sets the code string customers type at checkout
func (b *DiscountCodeBuilder) WithCode(code string) *DiscountCodeBuilder {
	b.code = code
	return b
}

// WithID sets the platform identifier
func (b *DiscountCodeBuilder) WithID(id string) *DiscountCodeBuilder {
	b.id = id
	return b
}

// WithVersion sets the optimistic-locking version
func (b *DiscountCodeBuilder) WithVersion(version int) *DiscountCodeBuilder {
	b.version = version
	return b
}

// WithName sets one localized name entry, keeping existing locales
func (b *DiscountCodeBuilder) WithName(locale, value string) *DiscountCodeBuilder {
	b.name[locale] = value
	return b
}

// WithNames replaces the whole localized name map
func (b *DiscountCodeBuilder) WithNames(names map[string]any) *DiscountCodeBuilder {
	b.name = names
	return b
}

// WithDescription sets one localized description entry
func (b *DiscountCodeBuilder) WithDescription(locale, value string) *DiscountCodeBuilder {
	b.description[locale] = value
	return b
}

// WithCartDiscounts sets the referenced cart-discount IDs
func (b *DiscountCodeBuilder) WithCartDiscounts(ids ...string) *DiscountCodeBuilder {
	b.cartDiscounts = ids
	return b
}

// WithCartPredicate sets the cart predicate guarding code application
func (b *DiscountCodeBuilder) WithCartPredicate(predicate string) *DiscountCodeBuilder {
	b.cartPredicate = predicate
	return b
}

// WithGroups sets the code groups
func (b *DiscountCodeBuilder) WithGroups(groups ...string) *DiscountCodeBuilder {
	b.groups = groups
	return b
}

// WithActive sets whether the code is currently active
func (b *DiscountCodeBuilder) WithActive(active bool) *DiscountCodeBuilder {
	b.isActive = active
	return b
}

// WithValidity sets the validity window timestamps
func (b *DiscountCodeBuilder) WithValidity(from, until string) *DiscountCodeBuilder {
	b.validFrom = from
	b.validUntil = until
	return b
}

// WithMaxApplications sets the application limits
func (b *DiscountCodeBuilder) WithMaxApplications(total, perCustomer int) *DiscountCodeBuilder {
	b.maxApplications = total
	b.maxPerCustomer = perCustomer
	return b
}

// WithCustomField adds a custom-type field to the code
func (b *DiscountCodeBuilder) WithCustomField(name string, value any) *DiscountCodeBuilder {
	if b.customFields == nil {
		b.customType = "discount-extras"
		b.customFields = map[string]any{}
	}
	b.customFields[name] = value
	return b
}

// WithTimestamps sets creation and modification times
func (b *DiscountCodeBuilder) WithTimestamps(created, modified time.Time) *DiscountCodeBuilder {
	b.createdAt = created
	b.lastModifiedAt = modified
	return b
}

// Build creates the discount-code data structure
func (b *DiscountCodeBuilder) Build() map[string]any {
	cartDiscounts := make([]any, len(b.cartDiscounts))
	for i, id := range b.cartDiscounts {
		cartDiscounts[i] = map[string]any{
			"typeId": "cart-discount",
			"id":     id,
		}
	}

	groups := make([]any, len(b.groups))
	for i, group := range b.groups {
		groups[i] = group
	}

	code := map[string]any{
		"id":              b.id,
		"version":         b.version,
		"code":            b.code,
		"name":            b.name,
		"description":     b.description,
		"cartDiscounts":   cartDiscounts,
		"groups":          groups,
		"isActive":        b.isActive,
		"validFrom":       b.validFrom,
		"validUntil":      b.validUntil,
		"maxApplications": b.maxApplications,
		"createdAt":       b.createdAt.Format(time.RFC3339),
		"lastModifiedAt":  b.lastModifiedAt.Format(time.RFC3339),
	}

	if b.cartPredicate != "" {
		code["cartPredicate"] = b.cartPredicate
	}

	if b.maxPerCustomer > 0 {
		code["maxApplicationsPerCustomer"] = b.maxPerCustomer
	}

	if b.customFields != nil {
		code["custom"] = map[string]any{
			"type": map[string]any{
				"typeId": "type",
				"id":     b.customType,
			},
			"fields": b.customFields,
		}
	}

	return code
}

// GenerateCodes builds n discount codes with sequential numbering
func GenerateCodes(n int) []map[string]any {
	codes := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		codes = append(codes, NewDiscountCodeBuilder(i).Build())
	}
	return codes
}

// PageResponseBuilder builds paged platform responses
type PageResponseBuilder struct {
	results []map[string]any
	offset  int64
	limit   int
	total   int
}

// NewPageResponseBuilder creates a new page response builder
func NewPageResponseBuilder() *PageResponseBuilder {
	return &PageResponseBuilder{
		results: []map[string]any{},
	}
}

// WithResults adds codes to the page
func (b *PageResponseBuilder) WithResults(codes ...map[string]any) *PageResponseBuilder {
	b.results = append(b.results, codes...)
	return b
}

// WithWindow sets the offset and limit the page claims to cover
func (b *PageResponseBuilder) WithWindow(offset int64, limit int) *PageResponseBuilder {
	b.offset = offset
	b.limit = limit
	return b
}

// WithTotal sets the collection total
func (b *PageResponseBuilder) WithTotal(total int) *PageResponseBuilder {
	b.total = total
	return b
}

// Build creates the paged envelope
func (b *PageResponseBuilder) Build() map[string]any {
	limit := b.limit
	if limit == 0 {
		limit = len(b.results)
	}
	total := b.total
	if total == 0 {
		total = len(b.results)
	}

	return map[string]any{
		"offset":  b.offset,
		"limit":   limit,
		"count":   len(b.results),
		"total":   total,
		"results": b.results,
	}
}
