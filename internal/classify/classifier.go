// Package classify matches transaction descriptions against a rule tree.
package classify

import (
	"strings"

	"github.com/hyeonwoo/ledgerflow/internal/domain"
)

// Match scans the description for the first keyword of the rule tree it
// contains, case-insensitively, and returns the owning company and
// category IDs. Precedence is strictly tree order: companies, then
// categories within a company, then keywords within a category; the
// first hit wins and scanning stops.
//
// Match is a pure function of (description, rules). A miss returns
// (nil, nil), the unclassified outcome — not an error.
func Match(description string, rules *domain.RuleTree) (companyID, categoryID *string) {
	if rules == nil {
		return nil, nil
	}

	haystack := strings.ToLower(description)

	for _, company := range rules.Companies {
		for _, category := range company.Categories {
			for _, keyword := range category.Keywords {
				if keyword == "" {
					continue
				}
				if strings.Contains(haystack, strings.ToLower(keyword)) {
					c := company.CompanyID
					cat := category.CategoryID
					return &c, &cat
				}
			}
		}
	}
	return nil, nil
}

// Apply classifies a transaction in place. The transaction either gets
// both identifiers or keeps both nil.
func Apply(txn *domain.Transaction, rules *domain.RuleTree) {
	txn.CompanyID, txn.CategoryID = Match(txn.Description, rules)
}
