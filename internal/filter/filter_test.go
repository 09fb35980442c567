package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loog-project/rulist/internal/filter"
	"github.com/loog-project/rulist/internal/user"
)

var (
	ada   = user.Record{ID: "1", FirstName: "Ada", LastName: "Lovelace", AvatarURL: "https://a/1.png"}
	grace = user.Record{ID: "2", FirstName: "Grace", LastName: "Hopper"}
)

func TestFilterExpressions(t *testing.T) {
	cases := []struct {
		expression string
		ada, grace bool
	}{
		{"", true, true},
		{"All()", true, true},
		{"None()", false, false},
		{"HasAvatar()", true, false},
		{`Names("grace")`, false, true},
		{`Name("Ada Lovelace")`, true, false},
		{`IDs("2", "3")`, false, true},
		{`NameContains("LOVE")`, true, false},
		{`User.FirstName startsWith "G"`, false, true},
		{`HasAvatar() || User.LastName == "Hopper"`, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.expression, func(t *testing.T) {
			f, err := filter.Compile(tc.expression)
			require.NoError(t, err)

			got, err := f.Match(ada)
			require.NoError(t, err)
			assert.Equal(t, tc.ada, got, "ada")

			got, err = f.Match(grace)
			require.NoError(t, err)
			assert.Equal(t, tc.grace, got, "grace")
		})
	}
}

func TestCompileRejectsBadExpressions(t *testing.T) {
	for _, expression := range []string{
		`User.FirstName`, // not a bool
		`Unknown()`,
		`All(`,
	} {
		_, err := filter.Compile(expression)
		assert.Error(t, err, expression)
	}
}

func TestMatchAll(t *testing.T) {
	f, err := filter.Compile("")
	require.NoError(t, err)
	assert.True(t, f.MatchAll())
	assert.Equal(t, filter.MatchAll, f.String())

	f, err = filter.Compile("HasAvatar()")
	require.NoError(t, err)
	assert.False(t, f.MatchAll())

	var nilFilter *filter.Filter
	assert.True(t, nilFilter.MatchAll())
}
