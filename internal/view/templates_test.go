package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestFormatHours(t *testing.T) {
	cases := map[int]string{
		0:   "0h00",
		30:  "0h30",
		60:  "1h00",
		95:  "1h35",
		480: "8h00",
	}
	for minutes, want := range cases {
		assert.Equal(t, want, formatHours(minutes))
	}
}
