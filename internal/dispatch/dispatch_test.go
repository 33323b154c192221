package dispatch

import (
	"testing"

	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
	"github.com/dukepan/multi-rooms-chat-back/internal/registry"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, domain.Room) {
	t.Helper()
	reg := registry.New()
	room := domain.Room{ID: domain.NewRoomId(), HostID: "host-1", RoomType: "standard"}
	if err := reg.CreateRoom(room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	return &Dispatcher{Registry: reg}, room
}

func TestValidateRoomNotFound(t *testing.T) {
	d, _ := newTestDispatcher(t)
	principal := identity.Principal{Subject: "host-1", Roles: identity.NewRoleSet(identity.RoleHost)}

	_, outcome := d.Validate(principal, domain.NewRoomId(), ConnHost)
	if outcome != OutcomeNotFound {
		t.Errorf("outcome = %v, want OutcomeNotFound", outcome)
	}
}

func TestValidateHostMustOwnRoom(t *testing.T) {
	d, room := newTestDispatcher(t)

	owner := identity.Principal{Subject: "host-1", Roles: identity.NewRoleSet(identity.RoleHost)}
	if _, outcome := d.Validate(owner, room.ID, ConnHost); outcome != OutcomeUpgraded {
		t.Errorf("owner outcome = %v, want OutcomeUpgraded", outcome)
	}

	impostor := identity.Principal{Subject: "host-2", Roles: identity.NewRoleSet(identity.RoleHost)}
	if _, outcome := d.Validate(impostor, room.ID, ConnHost); outcome != OutcomeForbidden {
		t.Errorf("impostor outcome = %v, want OutcomeForbidden", outcome)
	}
}

func TestValidateHostRoleRequired(t *testing.T) {
	d, room := newTestDispatcher(t)
	principal := identity.Principal{Subject: "host-1", Roles: identity.NewRoleSet(identity.RoleUser)}

	if _, outcome := d.Validate(principal, room.ID, ConnHost); outcome != OutcomeForbidden {
		t.Errorf("outcome = %v, want OutcomeForbidden", outcome)
	}
}

func TestValidateUserRoleRequired(t *testing.T) {
	d, room := newTestDispatcher(t)
	principal := identity.Principal{Subject: "someone", Roles: identity.NewRoleSet(identity.RoleUser)}

	if _, outcome := d.Validate(principal, room.ID, ConnUser); outcome != OutcomeUpgraded {
		t.Errorf("outcome = %v, want OutcomeUpgraded", outcome)
	}

	notAUser := identity.Principal{Subject: "someone", Roles: identity.NewRoleSet(identity.RoleHost)}
	if _, outcome := d.Validate(notAUser, room.ID, ConnUser); outcome != OutcomeForbidden {
		t.Errorf("outcome = %v, want OutcomeForbidden", outcome)
	}
}

func TestValidateBadConnType(t *testing.T) {
	d, room := newTestDispatcher(t)
	principal := identity.Principal{Subject: "host-1", Roles: identity.NewRoleSet(identity.RoleHost)}

	if _, outcome := d.Validate(principal, room.ID, ConnType("bogus")); outcome != OutcomeBadRequest {
		t.Errorf("outcome = %v, want OutcomeBadRequest", outcome)
	}
}

func TestValidateAdminSatisfiesAnyRole(t *testing.T) {
	d, room := newTestDispatcher(t)
	admin := identity.Principal{Subject: "ops", Roles: identity.NewRoleSet(identity.RoleAdmin)}

	if _, outcome := d.Validate(admin, room.ID, ConnUser); outcome != OutcomeUpgraded {
		t.Errorf("outcome = %v, want OutcomeUpgraded", outcome)
	}
}
