package ingestion

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	input := "Name , Value,Extra\n" +
		"a,1,x\n" +
		"\n" +
		"b,2\n" +
		"c,x\"y,3\n" +
		"d,4,z\n"

	type seen struct {
		line  int
		name  string
		value string
	}
	var rows []seen
	var badLines []int

	err := readRows(strings.NewReader(input), []string{"Name", "Value"}, func(r row) error {
		name, err := r.get("Name")
		require.NoError(t, err)
		value, err := r.get("Value")
		require.NoError(t, err)
		rows = append(rows, seen{line: r.line, name: name, value: value})
		return nil
	}, func(line int, err error) {
		assert.True(t, errors.Is(err, errRowUnreadable))
		badLines = append(badLines, line)
	})

	require.NoError(t, err)
	assert.Equal(t, []seen{
		{line: 2, name: "a", value: "1"},
		{line: 4, name: "b", value: "2"},
		{line: 6, name: "d", value: "4"},
	}, rows)
	assert.Equal(t, []int{5}, badLines)
}

func TestReadRows_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0

	err := readRows(strings.NewReader("A\n1\n2\n"), []string{"A"}, func(row) error {
		calls++
		return stop
	}, func(int, error) {})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
