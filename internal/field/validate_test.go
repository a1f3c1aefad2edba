package field

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/types"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()

	names := reg.Names()
	assert.Len(t, names, 15)
	assert.Equal(t, types.FieldFirstName, names[0], "primary name comes first in display order")

	age := reg.Get(types.FieldAge)
	require.NotNil(t, age)
	assert.Equal(t, "Возраст", age.Label)
	assert.Equal(t, 0, age.Min)
	assert.Equal(t, 120, age.Max)
	assert.True(t, age.Clearable)

	// Payment amount clears like age does.
	amount := reg.Get(types.FieldPaymentAmount)
	require.NotNil(t, amount)
	assert.True(t, amount.Clearable)

	assert.Nil(t, reg.Get("no_such_field"))
}

func TestValidate_RequiredText(t *testing.T) {
	reg := Default()

	res, err := reg.Validate(types.FieldFirstName, "  Анна ")
	require.NoError(t, err)
	assert.Equal(t, StatusValid, res.Status)
	assert.Equal(t, types.TextValue("Анна"), res.Value)

	res, err = reg.Validate(types.FieldFirstName, "   ")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	assert.Contains(t, res.Message, "Имя")
}

func TestValidate_OptionalTextClears(t *testing.T) {
	reg := Default()

	res, err := reg.Validate(types.FieldChurch, "   ")
	require.NoError(t, err)
	assert.Equal(t, StatusClear, res.Status)

	res, err = reg.Validate(types.FieldChurch, " St. Mark ")
	require.NoError(t, err)
	assert.Equal(t, StatusValid, res.Status)
	assert.Equal(t, "St. Mark", res.Value.Text)
}

func TestValidate_BoundedInt(t *testing.T) {
	reg := Default()

	tests := []struct {
		name   string
		raw    string
		status Status
		value  int
	}{
		{"valid", "28", StatusValid, 28},
		{"lower bound", "0", StatusValid, 0},
		{"upper bound", "120", StatusValid, 120},
		{"out of range", "150", StatusRejected, 0},
		{"negative", "-1", StatusRejected, 0},
		{"not a number", "abc", StatusRejected, 0},
		{"whitespace clears", "   ", StatusClear, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := reg.Validate(types.FieldAge, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			if tt.status == StatusValid {
				assert.Equal(t, types.IntValue(tt.value), res.Value)
			}
		})
	}
}

func TestValidate_BoundedIntRejectionStatesRange(t *testing.T) {
	reg := Default()

	res, err := reg.Validate(types.FieldAge, "150")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, res.Status)
	assert.Contains(t, res.Message, "0")
	assert.Contains(t, res.Message, "120")
}

func TestValidate_PaymentAmountClears(t *testing.T) {
	reg := Default()

	res, err := reg.Validate(types.FieldPaymentAmount, "")
	require.NoError(t, err)
	assert.Equal(t, StatusClear, res.Status)
}

func TestValidate_Date(t *testing.T) {
	reg := Default()

	res, err := reg.Validate(types.FieldBirthDate, "1997-10-14")
	require.NoError(t, err)
	require.Equal(t, StatusValid, res.Status)
	want := time.Date(1997, 10, 14, 0, 0, 0, 0, time.UTC)
	assert.True(t, res.Value.Date.Equal(want))

	// Wrong separator: rejected with a format example.
	res, err = reg.Validate(types.FieldBirthDate, "1997/10/14")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, res.Status)
	assert.Contains(t, res.Message, "YYYY-MM-DD")

	res, err = reg.Validate(types.FieldBirthDate, "  ")
	require.NoError(t, err)
	assert.Equal(t, StatusClear, res.Status)
}

func TestValidate_Enum(t *testing.T) {
	reg := Default()

	res, err := reg.Validate(types.FieldRole, "volunteer")
	require.NoError(t, err)
	assert.Equal(t, StatusValid, res.Status)
	assert.Equal(t, "volunteer", res.Value.Text)

	// Unknown token is a programming error, not an operator rejection.
	_, err = reg.Validate(types.FieldRole, "astronaut")
	assert.Error(t, err)
}

func TestValidate_UnknownField(t *testing.T) {
	reg := Default()

	_, err := reg.Validate("no_such_field", "x")
	assert.Error(t, err)
}

func TestOptionLabel(t *testing.T) {
	reg := Default()
	d := reg.Get(types.FieldPaymentStatus)
	require.NotNil(t, d)
	assert.Equal(t, "Оплачено", d.OptionLabel("paid"))
	assert.Equal(t, "mystery", d.OptionLabel("mystery"), "unknown tokens fall back to themselves")
}
