package docstore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// Money is stored as Decimal128 so the database keeps exact amounts.

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// decimal.String never produces an unparsable literal within range
		panic(fmt.Sprintf("docstore: decimal %s out of Decimal128 range", d))
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

type cafeDoc struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	Address   string `bson:"address"`
	OpenHours string `bson:"openHours"`
	Image     string `bson:"image,omitempty"`
}

func (d cafeDoc) model() (model.Cafe, error) {
	return model.Cafe{ID: d.ID, Name: d.Name, Address: d.Address, OpenHours: d.OpenHours, Image: d.Image}, nil
}

type menuDoc struct {
	ID       string               `bson:"_id"`
	CafeID   string               `bson:"cafeId"`
	Name     string               `bson:"name"`
	Price    primitive.Decimal128 `bson:"price"`
	Category string               `bson:"category"`
	Image    string               `bson:"image,omitempty"`
}

func newMenuDoc(m model.MenuItem) menuDoc {
	return menuDoc{ID: m.ID, CafeID: m.CafeID, Name: m.Name, Price: toDecimal128(m.Price), Category: m.Category, Image: m.Image}
}

func (d menuDoc) model() (model.MenuItem, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return model.MenuItem{}, err
	}
	return model.MenuItem{ID: d.ID, CafeID: d.CafeID, Name: d.Name, Price: price, Category: d.Category, Image: d.Image}, nil
}

type tableDoc struct {
	ID       string `bson:"_id"`
	CafeID   string `bson:"cafeId"`
	TableID  string `bson:"tableId"`
	Booked   bool   `bson:"booked"`
	Position int    `bson:"position"`
}

func tableDocID(cafeID, tableID string) string { return cafeID + "/" + tableID }

func (d tableDoc) model() (model.Table, error) {
	return model.Table{CafeID: d.CafeID, ID: d.TableID, Booked: d.Booked}, nil
}

type voucherDoc struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	Discount     primitive.Decimal128 `bson:"discount"`
	MinimumSpend primitive.Decimal128 `bson:"minimumSpend"`
}

func newVoucherDoc(v model.Voucher) voucherDoc {
	return voucherDoc{ID: v.ID, Name: v.Name, Discount: toDecimal128(v.Discount), MinimumSpend: toDecimal128(v.MinimumSpend)}
}

func (d voucherDoc) model() (model.Voucher, error) {
	disc, err := fromDecimal128(d.Discount)
	if err != nil {
		return model.Voucher{}, err
	}
	minSpend, err := fromDecimal128(d.MinimumSpend)
	if err != nil {
		return model.Voucher{}, err
	}
	return model.Voucher{ID: d.ID, Name: d.Name, Discount: disc, MinimumSpend: minSpend}, nil
}

type paymentDoc struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Image string `bson:"image,omitempty"`
}

func (d paymentDoc) model() (model.PaymentMethod, error) {
	return model.PaymentMethod{ID: d.ID, Name: d.Name, Image: d.Image}, nil
}

type reservationDoc struct {
	ID             string    `bson:"_id"`
	CafeID         string    `bson:"cafeId"`
	CafeName       string    `bson:"cafeName"`
	UserID         string    `bson:"userId"`
	UserName       string    `bson:"userName"`
	Date           string    `bson:"date"`
	Time           string    `bson:"time"`
	TotalGuests    int       `bson:"totalGuests"`
	SelectedTables []string  `bson:"selectedTables"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func newReservationDoc(r model.Reservation) reservationDoc {
	return reservationDoc(r)
}

func (d reservationDoc) model() (model.Reservation, error) {
	r := model.Reservation(d)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

type orderLineDoc struct {
	MenuItemID string               `bson:"menuItemId"`
	Name       string               `bson:"name"`
	UnitPrice  primitive.Decimal128 `bson:"price"`
	Quantity   int                  `bson:"quantity"`
	CafeID     string               `bson:"cafeId"`
}

type orderDoc struct {
	ID                string                `bson:"_id"`
	ReservationID     string                `bson:"reservationId"`
	CafeID            string                `bson:"cafeId"`
	Items             []orderLineDoc        `bson:"items"`
	TotalPrice        primitive.Decimal128  `bson:"totalPrice"`
	AppFeeAmount      primitive.Decimal128  `bson:"appFeeAmount"`
	DownPaymentAmount primitive.Decimal128  `bson:"downPaymentAmount"`
	VoucherName       *string               `bson:"voucherName"`
	VoucherDiscount   *primitive.Decimal128 `bson:"voucherDiscount"`
	PaymentMethod     string                `bson:"paymentMethod"`
	UserID            string                `bson:"userId"`
	Timestamp         time.Time             `bson:"timestamp"`
	Status            string                `bson:"status"`
}

func newOrderDoc(o model.Order) orderDoc {
	d := orderDoc{
		ID:                o.ID,
		ReservationID:     o.ReservationID,
		CafeID:            o.CafeID,
		Items:             make([]orderLineDoc, 0, len(o.Items)),
		TotalPrice:        toDecimal128(o.TotalPrice),
		AppFeeAmount:      toDecimal128(o.AppFeeAmount),
		DownPaymentAmount: toDecimal128(o.DownPaymentAmount),
		VoucherName:       o.VoucherName,
		PaymentMethod:     o.PaymentMethod,
		UserID:            o.UserID,
		Timestamp:         o.Timestamp,
		Status:            o.Status,
	}
	for _, l := range o.Items {
		d.Items = append(d.Items, orderLineDoc{
			MenuItemID: l.MenuItemID, Name: l.Name, UnitPrice: toDecimal128(l.UnitPrice), Quantity: l.Quantity, CafeID: l.CafeID,
		})
	}
	if o.VoucherDiscount != nil {
		v := toDecimal128(*o.VoucherDiscount)
		d.VoucherDiscount = &v
	}
	return d
}

func (d orderDoc) model() (model.Order, error) {
	o := model.Order{
		ID:            d.ID,
		ReservationID: d.ReservationID,
		CafeID:        d.CafeID,
		Items:         make([]model.OrderLine, 0, len(d.Items)),
		VoucherName:   d.VoucherName,
		PaymentMethod: d.PaymentMethod,
		UserID:        d.UserID,
		Timestamp:     d.Timestamp.UTC(),
		Status:        d.Status,
	}
	var err error
	if o.TotalPrice, err = fromDecimal128(d.TotalPrice); err != nil {
		return model.Order{}, err
	}
	if o.AppFeeAmount, err = fromDecimal128(d.AppFeeAmount); err != nil {
		return model.Order{}, err
	}
	if o.DownPaymentAmount, err = fromDecimal128(d.DownPaymentAmount); err != nil {
		return model.Order{}, err
	}
	if d.VoucherDiscount != nil {
		v, err := fromDecimal128(*d.VoucherDiscount)
		if err != nil {
			return model.Order{}, err
		}
		o.VoucherDiscount = &v
	}
	for _, l := range d.Items {
		price, err := fromDecimal128(l.UnitPrice)
		if err != nil {
			return model.Order{}, err
		}
		o.Items = append(o.Items, model.OrderLine{
			MenuItemID: l.MenuItemID, Name: l.Name, UnitPrice: price, Quantity: l.Quantity, CafeID: l.CafeID,
		})
	}
	return o, nil
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"displayName"`
	PasswordHash string    `bson:"passwordHash"`
	Role         string    `bson:"role"`
	Photo        string    `bson:"photo,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func newUserDoc(u model.User) userDoc { return userDoc(u) }

func (d userDoc) model() (model.User, error) {
	u := model.User(d)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

type tokenDoc struct {
	TokenHash string     `bson:"_id"`
	UserID    string     `bson:"userId"`
	ExpiresAt time.Time  `bson:"expiresAt"`
	RevokedAt *time.Time `bson:"revokedAt,omitempty"`
}
