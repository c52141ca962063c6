// Package permissions maps a character class and role onto the item
// categories that character may browse, list and bid on.
package permissions

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/angelmondragon/rpg-market/pkg/enums"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical class names.
const (
	ClassWarrior = "Warrior"
	ClassMage    = "Mage"
	ClassCleric  = "Cleric"
	ClassRogue   = "Rogue"
	ClassDruid   = "Druid"
	ClassBard    = "Bard"
	ClassPaladin = "Paladin"
	ClassRanger  = "Ranger"
)

var classCategories = map[string][]enums.Category{
	ClassWarrior: {enums.CategoryWeapons, enums.CategoryArmor},
	ClassMage:    {enums.CategoryPotions, enums.CategoryScrolls},
	ClassCleric:  {enums.CategoryPotions, enums.CategoryMisc},
	ClassRogue:   {enums.CategoryMisc, enums.CategoryWeapons},
	ClassDruid:   {enums.CategoryPotions, enums.CategoryMounts},
	ClassBard:    {enums.CategoryJewelry, enums.CategoryScrolls},
	ClassPaladin: {enums.CategoryArmor, enums.CategoryJewelry},
	ClassRanger:  {enums.CategoryWeapons, enums.CategoryMounts},
}

// keys are already accent folded and title cased
var classAliases = map[string]string{
	"Guerreiro": ClassWarrior,
	"Mago":      ClassMage,
	"Clerigo":   ClassCleric,
	"Ladino":    ClassRogue,
	"Druida":    ClassDruid,
	"Bardo":     ClassBard,
	"Paladino":  ClassPaladin,
}

// Classes returns the known canonical classes in display order.
func Classes() []string {
	return []string{ClassWarrior, ClassMage, ClassCleric, ClassRogue, ClassDruid, ClassBard, ClassPaladin, ClassRanger}
}

// NormalizeClass trims, folds accents and title-cases the class. Known
// Portuguese names resolve to their canonical class.
func NormalizeClass(class string) string {
	class = strings.TrimSpace(class)
	if class == "" {
		return ""
	}
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), class)
	if err != nil {
		folded = class
	}
	titled := cases.Title(language.Und).String(strings.ToLower(folded))
	if canonical, ok := classAliases[titled]; ok {
		return canonical
	}
	return titled
}

// IsKnownClass reports whether the class resolves to an entry in the table.
func IsKnownClass(class string) bool {
	_, ok := classCategories[NormalizeClass(class)]
	return ok
}

// AllowedCategories returns the categories available to the class and role, in
// canonical category order. Privileged roles and unknown classes get all.
func AllowedCategories(class string, role enums.UserRole) []enums.Category {
	if role.IsPrivileged() {
		return enums.AllCategories()
	}
	allowed, ok := classCategories[NormalizeClass(class)]
	if !ok {
		return enums.AllCategories()
	}

	out := make([]enums.Category, 0, len(allowed))
	for _, cat := range enums.AllCategories() {
		for _, a := range allowed {
			if a == cat {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

// IsAllowed reports whether the category is available to the class and role.
func IsAllowed(class string, role enums.UserRole, category enums.Category) bool {
	for _, cat := range AllowedCategories(class, role) {
		if cat == category {
			return true
		}
	}
	return false
}

// Restricted reports whether the caller sees a strict subset of categories.
func Restricted(class string, role enums.UserRole) bool {
	return len(AllowedCategories(class, role)) < len(enums.AllCategories())
}

// WriteMatrix renders the class by category table for adventurers.
func WriteMatrix(w io.Writer) error {
	categories := enums.AllCategories()
	header := make([]string, 0, len(categories)+1)
	header = append(header, fmt.Sprintf("%-8s", "CLASS"))
	for _, cat := range categories {
		header = append(header, fmt.Sprintf("%-7s", cat))
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(header, " "), " ")); err != nil {
		return err
	}

	for _, class := range Classes() {
		row := make([]string, 0, len(categories)+1)
		row = append(row, fmt.Sprintf("%-8s", class))
		for _, cat := range categories {
			mark := "-"
			if IsAllowed(class, enums.UserRoleAdventurer, cat) {
				mark = "x"
			}
			row = append(row, fmt.Sprintf("%-7s", mark))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(row, " "), " ")); err != nil {
			return err
		}
	}
	return nil
}
