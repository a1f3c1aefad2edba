// Package field declares the editable participant fields: their kinds,
// display labels, enum option sets, bounds, and clearing rules, plus the
// validator that turns raw operator input into typed values.
//
// The registry is pure data built once at process start and read-only
// thereafter. The session state machine never branches on field kind
// itself; it only looks at validation results and at Kind to pick the
// text-versus-choice input mode.
package field

import (
	"rollcall/internal/types"
)

// Kind is the closed set of field behaviors.
type Kind int

const (
	KindEnum Kind = iota
	KindRequiredText
	KindOptionalText
	KindBoundedInt
	KindDate
)

// String returns the kind name used in logs and the fields endpoint.
func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindRequiredText:
		return "required_text"
	case KindOptionalText:
		return "optional_text"
	case KindBoundedInt:
		return "bounded_int"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Choice reports whether operator input for this kind arrives as a
// discrete token (presentation renders buttons) rather than free text.
func (k Kind) Choice() bool {
	return k == KindEnum
}

// Option is one selectable value of an enum field. Token is the stored
// wire value; Label is what the operator sees.
type Option struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// Descriptor is the static metadata for one editable field.
type Descriptor struct {
	Name      types.FieldName `json:"name"`
	Label     string          `json:"label"`
	Kind      Kind            `json:"-"`
	KindName  string          `json:"kind"`
	Options   []Option        `json:"options,omitempty"` // enum fields only
	Min, Max  int             `json:"-"`                 // bounded-int fields only
	Clearable bool            `json:"clearable"`         // whitespace input clears the field
}

// OptionLabel returns the display label for an enum token, falling back
// to the token itself for values the registry does not know.
func (d *Descriptor) OptionLabel(token string) string {
	for _, o := range d.Options {
		if o.Token == token {
			return o.Label
		}
	}
	return token
}

// hasOption reports whether token is a declared enum option.
func (d *Descriptor) hasOption(token string) bool {
	for _, o := range d.Options {
		if o.Token == token {
			return true
		}
	}
	return false
}

// Registry holds all field descriptors in display order. Safe for
// concurrent reads after construction.
type Registry struct {
	fields map[types.FieldName]*Descriptor
	order  []types.FieldName
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fields: make(map[types.FieldName]*Descriptor)}
}

// Register adds a descriptor. Registration order is display order.
func (r *Registry) Register(d *Descriptor) {
	d.KindName = d.Kind.String()
	r.fields[d.Name] = d
	r.order = append(r.order, d.Name)
}

// Get returns the descriptor for a field, or nil if not declared.
func (r *Registry) Get(name types.FieldName) *Descriptor {
	return r.fields[name]
}

// Names returns all field names in display order.
func (r *Registry) Names() []types.FieldName {
	out := make([]types.FieldName, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns all descriptors in display order.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.fields[n])
	}
	return out
}

// Default builds the participant field registry: fifteen fields of mixed
// kind, labeled for the operator audience.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&Descriptor{Name: types.FieldFirstName, Label: "Имя", Kind: KindRequiredText})
	r.Register(&Descriptor{Name: types.FieldLastName, Label: "Фамилия", Kind: KindOptionalText, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldGender, Label: "Пол", Kind: KindEnum, Options: []Option{
		{Token: "male", Label: "Мужской"},
		{Token: "female", Label: "Женский"},
	}})
	r.Register(&Descriptor{Name: types.FieldBirthDate, Label: "Дата рождения", Kind: KindDate, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldAge, Label: "Возраст", Kind: KindBoundedInt, Min: 0, Max: 120, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldRole, Label: "Роль", Kind: KindEnum, Options: []Option{
		{Token: "participant", Label: "Участник"},
		{Token: "volunteer", Label: "Волонтёр"},
		{Token: "organizer", Label: "Организатор"},
	}})
	r.Register(&Descriptor{Name: types.FieldDepartment, Label: "Отдел", Kind: KindEnum, Options: []Option{
		{Token: "kitchen", Label: "Кухня"},
		{Token: "media", Label: "Медиа"},
		{Token: "worship", Label: "Прославление"},
		{Token: "children", Label: "Детское служение"},
	}})
	r.Register(&Descriptor{Name: types.FieldSize, Label: "Размер одежды", Kind: KindEnum, Options: []Option{
		{Token: "xs", Label: "XS"},
		{Token: "s", Label: "S"},
		{Token: "m", Label: "M"},
		{Token: "l", Label: "L"},
		{Token: "xl", Label: "XL"},
		{Token: "xxl", Label: "XXL"},
	}})
	r.Register(&Descriptor{Name: types.FieldChurch, Label: "Церковь", Kind: KindOptionalText, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldCity, Label: "Город", Kind: KindOptionalText, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldContact, Label: "Контакт", Kind: KindOptionalText, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldSubmittedBy, Label: "Кто подал", Kind: KindOptionalText, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldPaymentStatus, Label: "Статус оплаты", Kind: KindEnum, Options: []Option{
		{Token: "unpaid", Label: "Не оплачено"},
		{Token: "partial", Label: "Оплачено частично"},
		{Token: "paid", Label: "Оплачено"},
		{Token: "exempt", Label: "Освобождён"},
	}})
	// Payment amount clears on whitespace like age does; the two optional
	// numeric fields behave identically.
	r.Register(&Descriptor{Name: types.FieldPaymentAmount, Label: "Сумма оплаты", Kind: KindBoundedInt, Min: 0, Max: 1000000, Clearable: true})
	r.Register(&Descriptor{Name: types.FieldPaymentDate, Label: "Дата оплаты", Kind: KindDate, Clearable: true})
	return r
}
