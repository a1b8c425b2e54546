// Package aggregation turns a flat list of orders into the groupings used by
// the delivery dashboard. Every function returns new values and leaves its
// input untouched.
package aggregation

import (
	"sort"
	"time"

	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/models"
)

const (
	UnknownDate = "Unknown Date"
	UnknownArea = "Unknown Area"
)

type DateGroups struct {
	Keys   []string                  `json:"keys"`
	Groups map[string][]models.Order `json:"groups"`
}

type AreaGroups struct {
	Keys   []string                  `json:"keys"`
	Groups map[string][]models.Order `json:"groups"`
}

type CustomerGroup struct {
	Name        string         `json:"name"`
	Phone       string         `json:"phone"`
	Date        string         `json:"date"`
	Orders      []models.Order `json:"orders"`
	TotalItems  int            `json:"totalItems"`
	TotalAmount float64        `json:"totalAmount"`
	Status      string         `json:"status"`
}

const (
	GroupDelivered = "delivered"
	GroupPending   = "pending"
)

func dateKey(o models.Order) string {
	if o.Date == "" {
		return UnknownDate
	}
	return o.Date
}

func areaKey(o models.Order) string {
	switch {
	case o.AddressInfo.Pincode != "":
		return o.AddressInfo.Pincode
	case o.AddressInfo.Address != "":
		return o.AddressInfo.Address
	}
	return UnknownArea
}

// dateLess orders date keys most recent first. Keys that do not parse as a
// calendar date come after the ones that do, and UnknownDate is always last.
func dateLess(a, b string) bool {
	if a == UnknownDate || b == UnknownDate {
		return b == UnknownDate && a != UnknownDate
	}
	ta, oka := models.ParseDateKey(a)
	tb, okb := models.ParseDateKey(b)
	switch {
	case oka && okb:
		return ta.After(tb)
	case oka != okb:
		return oka
	}
	return false
}

// GroupByDate buckets orders by their stored date string.
func GroupByDate(orders []models.Order) DateGroups {
	out := DateGroups{Groups: make(map[string][]models.Order)}
	for _, o := range orders {
		k := dateKey(o)
		if _, seen := out.Groups[k]; !seen {
			out.Keys = append(out.Keys, k)
		}
		out.Groups[k] = append(out.Groups[k], o)
	}
	sort.SliceStable(out.Keys, func(i, j int) bool {
		return dateLess(out.Keys[i], out.Keys[j])
	})
	return out
}

// GroupByArea buckets orders by delivery pincode, busiest area first.
func GroupByArea(orders []models.Order) AreaGroups {
	out := AreaGroups{Groups: make(map[string][]models.Order)}
	for _, o := range orders {
		k := areaKey(o)
		if _, seen := out.Groups[k]; !seen {
			out.Keys = append(out.Keys, k)
		}
		out.Groups[k] = append(out.Groups[k], o)
	}
	sort.SliceStable(out.Keys, func(i, j int) bool {
		return len(out.Groups[out.Keys[i]]) > len(out.Groups[out.Keys[j]])
	})
	return out
}

type customerKey struct {
	name, phone, date string
}

// GroupByCustomer groups orders by customer per calendar day. A group counts
// as delivered as soon as any one of its orders is delivered.
func GroupByCustomer(orders []models.Order) []CustomerGroup {
	index := make(map[customerKey]int)
	var out []CustomerGroup
	for _, o := range orders {
		k := customerKey{o.AddressInfo.Name, o.AddressInfo.PhoneNumber, dateKey(o)}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, CustomerGroup{Name: k.name, Phone: k.phone, Date: k.date, Status: GroupPending})
		}
		g := &out[i]
		g.Orders = append(g.Orders, o)
		g.TotalItems += len(o.CartItems)
		g.TotalAmount = invoicing.Round2(g.TotalAmount + o.GrandTotal)
		if o.NormalizedStatus() == models.StatusDelivered {
			g.Status = GroupDelivered
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dateLess(out[i].Date, out[j].Date)
	})
	return out
}

// FilterVisible drops delivered and cancelled orders that finished more than
// visibility ago. Orders without a recorded finish time stay visible.
func FilterVisible(orders []models.Order, now time.Time, visibility time.Duration) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if at, ok := o.FinishedAt(); ok && now.Sub(at) > visibility {
			continue
		}
		out = append(out, o)
	}
	return out
}

type Summary struct {
	TotalOrders     int            `json:"totalOrders"`
	TotalRevenue    float64        `json:"totalRevenue"`
	AvgOrderValue   float64        `json:"avgOrderValue"`
	TotalItems      int            `json:"totalItems"`
	StatusBreakdown map[string]int `json:"statusBreakdown"`
}

// Summarize rolls orders up for the dashboard header. Cancelled orders are
// counted in the breakdown but not in revenue.
func Summarize(orders []models.Order) Summary {
	s := Summary{StatusBreakdown: make(map[string]int)}
	billable := 0
	for _, o := range orders {
		st := o.NormalizedStatus()
		s.TotalOrders++
		s.StatusBreakdown[string(st)]++
		if st == models.StatusCancelled {
			continue
		}
		billable++
		s.TotalRevenue += o.GrandTotal
		s.TotalItems += len(o.CartItems)
	}
	s.TotalRevenue = invoicing.Round2(s.TotalRevenue)
	if billable > 0 {
		s.AvgOrderValue = invoicing.Round2(s.TotalRevenue / float64(billable))
	}
	return s
}
