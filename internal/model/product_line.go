package model

import (
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductDevice    ProductType = "Device"
	ProductAccessory ProductType = "Accessory"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductDevice, ProductAccessory:
		return true
	}
	return false
}

// Category is the physical condition of a unit.
type Category string

const (
	CategoryNew      Category = "New"
	CategoryUsedGood Category = "UsedGood"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryNew, CategoryUsedGood:
		return true
	}
	return false
}

type InspectionStatus string

const (
	InspectionPending   InspectionStatus = "Pending"
	InspectionInspected InspectionStatus = "Inspected"
)

// ProductLine is one cadastrated line of a note. Lines produced by explosion
// carry ParentLineID; grouped lines have it nil.
type ProductLine struct {
	ID       string `gorm:"type:varchar(64);primaryKey"`
	NoteID   string `gorm:"type:varchar(32);not null;index"`
	Position int    `gorm:"not null"`
	// ParentLineID is the ID of the grouped line this unit was exploded from.
	ParentLineID *string `gorm:"type:varchar(64);index"`

	ProductType   ProductType `gorm:"type:varchar(12);not null"`
	Brand         string      `gorm:"not null"`
	Model         string      `gorm:"not null"`
	IMEI          *string     `gorm:"type:varchar(20);index"`
	Color         *string
	Category      *Category `gorm:"type:varchar(12)"`
	BatteryHealth int       `gorm:"not null;default:100"`

	Quantity  int             `gorm:"not null"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCost decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	InspectionStatus InspectionStatus `gorm:"type:varchar(12);not null;default:'Pending'"`
	// DuplicateIMEI blocks conference of this line until a unique IMEI is submitted.
	DuplicateIMEI     bool `gorm:"column:duplicate_imei;not null;default:false"`
	DuplicateLocation *string
}

func (ProductLine) TableName() string { return "nota_entrada_produtos" }

func (l *ProductLine) IsDevice() bool { return l.ProductType == ProductDevice }

func (l *ProductLine) IsInspected() bool { return l.InspectionStatus == InspectionInspected }

// RequiresUnitFields reports whether the line identifies a single physical
// device, which must carry IMEI, color and category before conference.
func (l *ProductLine) RequiresUnitFields() bool {
	return l.IsDevice() && l.Quantity == 1
}

// MissingUnitFields lists the per-unit fields still empty on the line.
func (l *ProductLine) MissingUnitFields() []string {
	var missing []string
	if l.IMEI == nil || *l.IMEI == "" {
		missing = append(missing, "imei")
	}
	if l.Color == nil || *l.Color == "" {
		missing = append(missing, "color")
	}
	if l.Category == nil {
		missing = append(missing, "category")
	}
	return missing
}

// SetQuantity changes the quantity and keeps TotalCost in step. A pending line
// that goes above one unit loses its IMEI: a serial number identifies one unit.
func (l *ProductLine) SetQuantity(q int) {
	l.Quantity = q
	if q > 1 && !l.IsInspected() {
		l.IMEI = nil
		l.DuplicateIMEI = false
		l.DuplicateLocation = nil
	}
	l.RecomputeTotal()
}

func (l *ProductLine) RecomputeTotal() {
	l.TotalCost = l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SetCategory applies the category and the battery rule for new units.
func (l *ProductLine) SetCategory(c Category) {
	l.Category = &c
	if c == CategoryNew {
		l.BatteryHealth = 100
	}
}

// ClearUnitFields drops the fields that identify one physical unit.
func (l *ProductLine) ClearUnitFields() {
	l.IMEI = nil
	l.Color = nil
	l.Category = nil
	l.BatteryHealth = 100
	l.DuplicateIMEI = false
	l.DuplicateLocation = nil
}

// Regrouped returns a pending line with the product data of l under a new ID
// and quantity. Explosion and collapse both build their lines this way, so
// the unit fields never leak from one shape to the other.
func (l ProductLine) Regrouped(id string, parent *string, qty int) ProductLine {
	out := l.Clone()
	out.ID = id
	out.ParentLineID = cloneString(parent)
	out.InspectionStatus = InspectionPending
	out.ClearUnitFields()
	out.SetQuantity(qty)
	return out
}

func (l ProductLine) Clone() ProductLine {
	c := l
	c.ParentLineID = cloneString(l.ParentLineID)
	c.IMEI = cloneString(l.IMEI)
	c.Color = cloneString(l.Color)
	c.DuplicateLocation = cloneString(l.DuplicateLocation)
	if l.Category != nil {
		cat := *l.Category
		c.Category = &cat
	}
	return c
}
