package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rules is the static alias-group and set configuration, loaded once at
// startup and read-only afterwards.
type Rules struct {
	AliasGroups map[string][]string `json:"aliasGroups" validate:"required,min=1"`
	Sets        []SetRule           `json:"sets" validate:"dive"`

	// group names in deterministic iteration order
	groupNames []string
}

// SetRule derives one set group's quantity from the minimum of its
// component groups.
type SetRule struct {
	SetGroup   string   `json:"setGroup" validate:"required"`
	Components []string `json:"components" validate:"required,min=1,dive,required"`
}

// LoadRules reads and validates the rules file. Any validation failure is
// fatal for startup.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	return &rules, nil
}

// Validate checks structural and referential integrity of the rules.
func (r *Rules) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}

	for name, skus := range r.AliasGroups {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("alias group with empty name")
		}
		if len(skus) == 0 {
			return fmt.Errorf("alias group %q has no SKUs", name)
		}
		for _, sku := range skus {
			if strings.TrimSpace(sku) == "" {
				return fmt.Errorf("alias group %q contains an empty SKU", name)
			}
		}
	}

	for _, set := range r.Sets {
		if _, ok := r.AliasGroups[set.SetGroup]; !ok {
			return fmt.Errorf("set group %q is not a configured alias group", set.SetGroup)
		}
		for _, component := range set.Components {
			if _, ok := r.AliasGroups[component]; !ok {
				return fmt.Errorf("set %q references unknown component group %q", set.SetGroup, component)
			}
		}
	}

	r.groupNames = make([]string, 0, len(r.AliasGroups))
	for name := range r.AliasGroups {
		r.groupNames = append(r.groupNames, name)
	}
	// JSON objects carry no order, so group iteration is lexicographic for
	// deterministic sync ordering. Set order stays as configured.
	sort.Strings(r.groupNames)

	return nil
}

// GroupNames returns all alias group names in deterministic order.
func (r *Rules) GroupNames() []string {
	return r.groupNames
}

// GroupsForSKU returns every alias group containing the SKU, in
// deterministic order.
func (r *Rules) GroupsForSKU(sku string) []string {
	var groups []string
	for _, name := range r.groupNames {
		for _, member := range r.AliasGroups[name] {
			if member == sku {
				groups = append(groups, name)
				break
			}
		}
	}
	return groups
}
