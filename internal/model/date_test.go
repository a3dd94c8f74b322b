package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{name: "valid", in: "2025-06-01", want: NewDate(2025, time.June, 1)},
		{name: "leap day", in: "2024-02-29", want: NewDate(2024, time.February, 29)},
		{name: "not a leap year", in: "2025-02-29", wantErr: true},
		{name: "wrong layout", in: "01/06/2025", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "timestamp", in: "2025-06-01T10:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDateFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Date Date `json:"date"`
	}{Date: NewDate(2025, time.May, 15)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-05-15"}`, string(b))

	var in struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-06-01"}`), &in))
	assert.Equal(t, NewDate(2025, time.June, 1), in.Date)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"June 1st"}`), &in))
}

func TestDate_Scan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-12-31")))
	assert.Equal(t, "2024-12-31", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDate_Value(t *testing.T) {
	v, err := NewDate(2025, time.June, 1).Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDate_In(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	got := NewDate(2025, time.June, 1).In(loc)

	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, loc, got.Location())
}

func TestEnums(t *testing.T) {
	assert.True(t, DocumentTypeInsurance.Valid())
	assert.False(t, DocumentType("registration").Valid())
	assert.True(t, CategoryRC.Valid())
	assert.False(t, Category("passport").Valid())
	assert.False(t, Category("").Valid())
}
