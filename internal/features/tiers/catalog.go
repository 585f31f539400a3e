package tiers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// catalogFile — формат файла каталога:
//
//	[[tier]]
//	id = "quick"
//	name = "Quick Boost"
//	price = 10000        # копейки
//	duration_hours = 24
type catalogFile struct {
	Tiers []*Tier `toml:"tier"`
}

// LoadCatalogFile читает каталог тарифов из TOML-файла.
func LoadCatalogFile(path string) ([]*Tier, error) {
	var f catalogFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога %s: %w", path, err)
	}
	return validateCatalog(md, &f)
}

// ParseCatalog читает каталог тарифов из r.
func ParseCatalog(r io.Reader) ([]*Tier, error) {
	var f catalogFile
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}
	return validateCatalog(md, &f)
}

func validateCatalog(md toml.MetaData, f *catalogFile) ([]*Tier, error) {
	// Опечатка в ключе (например, "duration") иначе молча дала бы 0
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("неизвестные ключи в каталоге: %s", strings.Join(keys, ", "))
	}
	if len(f.Tiers) == 0 {
		return nil, fmt.Errorf("в каталоге нет ни одного тарифа")
	}

	seen := make(map[string]bool, len(f.Tiers))
	for _, t := range f.Tiers {
		t.ID = strings.TrimSpace(t.ID)
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("тариф %q указан дважды", t.ID)
		}
		seen[t.ID] = true
	}

	sort.SliceStable(f.Tiers, func(i, j int) bool { return f.Tiers[i].Price < f.Tiers[j].Price })
	return f.Tiers, nil
}
