package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RuleTree is the ordered company → category → keyword structure that
// drives classification. It is immutable for the duration of a job:
// loaded once from the job row at claim time and only ever read after
// that. Order is significant at every level — the classifier honors it.
type RuleTree struct {
	Companies []RuleCompany `json:"companies"`
}

// RuleCompany is one company entry with its ordered categories.
type RuleCompany struct {
	CompanyID  string         `json:"company_id"`
	Categories []RuleCategory `json:"categories"`
}

// RuleCategory is one category entry with its ordered keywords.
// A missing keywords list is treated as empty and never matches.
type RuleCategory struct {
	CategoryID string   `json:"category_id"`
	Keywords   []string `json:"keywords"`
}

// Value implements driver.Valuer so the tree is stored as a JSON column.
func (r RuleTree) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rule tree: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for reading the JSON column back.
func (r *RuleTree) Scan(value interface{}) error {
	if value == nil {
		*r = RuleTree{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported rule tree column type %T", value)
	}

	if len(data) == 0 {
		*r = RuleTree{}
		return nil
	}
	if err := json.Unmarshal(data, r); err != nil {
		return fmt.Errorf("failed to unmarshal rule tree: %w", err)
	}
	return nil
}

// ParseRuleTree decodes and validates a rules JSON document as uploaded
// through the intake API.
func ParseRuleTree(data []byte) (*RuleTree, error) {
	var tree RuleTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("invalid rules JSON: %w", err)
	}
	for i, company := range tree.Companies {
		if company.CompanyID == "" {
			return nil, fmt.Errorf("rules company %d: missing company_id", i)
		}
		for j, category := range company.Categories {
			if category.CategoryID == "" {
				return nil, fmt.Errorf("rules company %q category %d: missing category_id", company.CompanyID, j)
			}
		}
	}
	return &tree, nil
}
