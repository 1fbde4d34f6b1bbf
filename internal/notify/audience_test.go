package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"autoshop/internal/domain"
)

var (
	staff    = &domain.User{ID: "s1", Roles: []domain.Role{domain.RoleManager}}
	customer = &domain.User{ID: "c1", Roles: []domain.Role{domain.RoleCustomer}}
	other    = &domain.User{ID: "c2", Roles: []domain.Role{domain.RoleCustomer}}
)

func TestEvent_VisibleTo(t *testing.T) {
	tests := []struct {
		name string
		data string
		user *domain.User
		want bool
	}{
		{"recipient sees own", `{"recipientId":"c1"}`, customer, true},
		{"other customer excluded", `{"recipientId":"c1"}`, other, false},
		{"staff excluded from customer notice", `{"recipientId":"c1"}`, staff, false},
		{"user id addresses", `{"userId":"c2","title":"x"}`, other, true},
		{"role addressed", `{"roles":["technician","manager"]}`, staff, true},
		{"role addressed excludes customer", `{"roles":["technician"]}`, customer, false},
		{"unaddressed goes to staff", `{"title":"Stock low"}`, staff, true},
		{"unaddressed hidden from customer", `{"title":"Stock low"}`, customer, false},
		{"non-object payload goes to staff", `"plain"`, staff, true},
		{"no user", `{"recipientId":"c1"}`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Type: EventNotificationNew, Data: json.RawMessage(tt.data)}
			assert.Equal(t, tt.want, e.VisibleTo(tt.user))
		})
	}
}

func TestRecent_ListFiltersByUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	recent := NewRecent(hub, 10)
	defer recent.Close()

	hub.Publish(Event{Type: EventNotificationNew, ID: "mine", Data: json.RawMessage(`{"recipientId":"c1"}`)})
	hub.Publish(Event{Type: EventNotificationNew, ID: "theirs", Data: json.RawMessage(`{"recipientId":"c2"}`)})
	hub.Publish(Event{Type: EventNotificationNew, ID: "shop", Data: json.RawMessage(`{"title":"Stock low"}`)})

	ids := func(events []Event) []string {
		var out []string
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}
	assert.Equal(t, []string{"mine"}, ids(recent.List(customer)))
	assert.Equal(t, []string{"theirs"}, ids(recent.List(other)))
	assert.Equal(t, []string{"shop"}, ids(recent.List(staff)))
	assert.Empty(t, recent.List(nil))
}
