package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		name    string
		text    string
		command string
		args    []string
		ok      bool
	}{
		{"слэш", "/баланс", "баланс", nil, true},
		{"с аргументами", "/купить 17 quick", "купить", []string{"17", "quick"}, true},
		{"восклицательный", "!тарифы", "тарифы", nil, true},
		{"точка и регистр", ".Промо 5", "промо", []string{"5"}, true},
		{"имя бота", "/buy@fuelboost_bot 7 area", "buy", []string{"7", "area"}, true},
		{"пробелы вокруг", "  /history   2  ", "history", []string{"2"}, true},
		{"без префикса", "привет", "", nil, false},
		{"только префикс", "/", "", nil, false},
		{"пустое", "", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.command, command)
			assert.Equal(t, tt.args, args)
		})
	}
}
