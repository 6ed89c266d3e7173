package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeverityStyles(t *testing.T) {
	require.Equal(t, "red", SeverityError.Style().Color)
	require.Equal(t, "green", SeveritySuccess.Style().Color)
	require.Equal(t, "info", SeverityInfo.Style().Icon)
	require.Equal(t, "info", Severity(42).String())
}

func TestParseSeverity(t *testing.T) {
	for input, want := range map[string]Severity{
		"":        SeverityInfo,
		"info":    SeverityInfo,
		" Error ": SeverityError,
		"SUCCESS": SeveritySuccess,
	} {
		got, err := ParseSeverity(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := ParseSeverity("warning")
	require.Error(t, err)
}

func TestSeverityJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		Severity Severity `json:"severity"`
	}{SeverityError})
	require.NoError(t, err)
	require.JSONEq(t, `{"severity":"error"}`, string(raw))

	var decoded struct {
		Severity Severity `json:"severity"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"severity":"success"}`), &decoded))
	require.Equal(t, SeveritySuccess, decoded.Severity)
	require.Error(t, json.Unmarshal([]byte(`{"severity":"loud"}`), &decoded))
}

func TestPageCloneIsDeep(t *testing.T) {
	page := Page{Total: 1, Rows: []UserRow{{ID: 1, Roles: []Role{{ID: 5, Name: "OPERATOR"}}}}}
	clone := page.Clone()

	row, ok := clone.Row(1)
	require.True(t, ok)
	row.Roles[0].Name = "CHANGED"
	row.Email = "x@example.com"

	require.Equal(t, "OPERATOR", page.Rows[0].Roles[0].Name)
	require.Empty(t, page.Rows[0].Email)
	require.True(t, page.Rows[0].HasRole(5))
	require.False(t, page.Rows[0].HasRole(6))

	_, ok = clone.Row(2)
	require.False(t, ok)
	require.Nil(t, Page{}.Clone().Rows)
}

func TestProfileUpdate(t *testing.T) {
	require.True(t, ProfileUpdate{}.Empty())

	name := "Kim"
	row := UserRow{FirstName: "K", LastName: "Lee"}
	ProfileUpdate{FirstName: &name}.Apply(&row)
	require.Equal(t, "Kim", row.FirstName)
	require.Equal(t, "Lee", row.LastName)
}

func TestPrincipalAuthenticated(t *testing.T) {
	require.False(t, Principal{Session: "s1"}.Authenticated())
	require.True(t, Principal{Token: "t"}.Authenticated())
}
