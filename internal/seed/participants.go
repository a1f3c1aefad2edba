// Package seed provides demo participant records for local development.
package seed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/store/local"
	"rollcall/internal/types"
)

// Apply inserts the demo participants and returns them.
func Apply(ctx context.Context, st *local.Store) ([]*types.Record, error) {
	recs := Participants()
	for _, rec := range recs {
		if err := st.Insert(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// Participants builds three demo records with fresh ids: one fully filled
// in, one partially filled, one sparse.
func Participants() []*types.Record {
	anna := types.NewRecord(uuid.New().String())
	anna.Values = map[types.FieldName]types.Value{
		types.FieldFirstName:     types.TextValue("Анна"),
		types.FieldLastName:      types.TextValue("Киселёва"),
		types.FieldGender:        types.TextValue("female"),
		types.FieldBirthDate:     date("1997-10-14"),
		types.FieldAge:           types.IntValue(28),
		types.FieldRole:          types.TextValue("participant"),
		types.FieldSize:          types.TextValue("s"),
		types.FieldChurch:        types.TextValue("Слово жизни"),
		types.FieldCity:          types.TextValue("Казань"),
		types.FieldPaymentStatus: types.TextValue("paid"),
		types.FieldPaymentAmount: types.IntValue(3500),
		types.FieldPaymentDate:   date("2026-07-02"),
	}

	pavel := types.NewRecord(uuid.New().String())
	pavel.Values = map[types.FieldName]types.Value{
		types.FieldFirstName:     types.TextValue("Павел"),
		types.FieldLastName:      types.TextValue("Громов"),
		types.FieldGender:        types.TextValue("male"),
		types.FieldRole:          types.TextValue("volunteer"),
		types.FieldDepartment:    types.TextValue("kitchen"),
		types.FieldSize:          types.TextValue("xl"),
		types.FieldCity:          types.TextValue("Нижний Новгород"),
		types.FieldContact:       types.TextValue("@pgromov"),
		types.FieldPaymentStatus: types.TextValue("partial"),
		types.FieldPaymentAmount: types.IntValue(1500),
	}

	maria := types.NewRecord(uuid.New().String())
	maria.Values = map[types.FieldName]types.Value{
		types.FieldFirstName:     types.TextValue("Мария"),
		types.FieldGender:        types.TextValue("female"),
		types.FieldRole:          types.TextValue("organizer"),
		types.FieldDepartment:    types.TextValue("media"),
		types.FieldSubmittedBy:   types.TextValue("Анна Киселёва"),
		types.FieldPaymentStatus: types.TextValue("exempt"),
	}

	return []*types.Record{anna, pavel, maria}
}

func date(s string) types.Value {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return types.DateValue(t)
}
