package catalog

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxDiscountPercent = 90

type Product struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string                      `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Slug            string                      `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Description     string                      `gorm:"type:text;column:description" json:"description"`
	Category        string                      `gorm:"index;column:category" json:"category"`
	Brand           string                      `gorm:"index;column:brand" json:"brand"`
	Price           int64                       `gorm:"not null;column:price" json:"price"`
	DiscountPercent int                         `gorm:"not null;default:0;column:discount_percent" json:"discount_percent"`
	Stock           int                         `gorm:"not null;default:0;column:stock" json:"stock"`
	Sold            int                         `gorm:"not null;default:0;column:sold" json:"sold"`
	Images          datatypes.JSONSlice[string] `gorm:"column:images" json:"images"`
	Rating          float64                     `gorm:"not null;default:0;column:rating" json:"rating"`
	NumReviews      int                         `gorm:"not null;default:0;column:num_reviews" json:"num_reviews"`
	IsActive        bool                        `gorm:"not null;column:is_active;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.Images == nil {
		p.Images = datatypes.JSONSlice[string]{}
	}
	return nil
}

// FinalPrice is the unit price after discount, rounded down to the dong.
func (p *Product) FinalPrice() int64 {
	if p == nil {
		return 0
	}
	d := p.DiscountPercent
	if d <= 0 {
		return p.Price
	}
	if d > MaxDiscountPercent {
		d = MaxDiscountPercent
	}
	return p.Price * int64(100-d) / 100
}

func (p *Product) PrimaryImage() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

var slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lower-cases, strips diacritics and joins words with '-'.
func Slugify(name string) string {
	s, _, err := transform.String(slugFold, strings.TrimSpace(name))
	if err != nil {
		s = name
	}
	s = strings.NewReplacer("đ", "d", "Đ", "d").Replace(s)
	s = strings.ToLower(s)

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
