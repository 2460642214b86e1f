package model_test

import (
	"reflect"
	"testing"

	"github.com/Tiliavir/climesync/internal/model"
)

func TestDecodePermission(t *testing.T) {
	tests := []struct {
		mode int
		want model.Permission
	}{
		{0, model.Permission{}},
		{1, model.Permission{Manager: true}},
		{2, model.Permission{Spectator: true}},
		{4, model.Permission{Member: true}},
		{5, model.Permission{Member: true, Manager: true}},
		{6, model.Permission{Member: true, Spectator: true}},
		{7, model.Permission{Member: true, Spectator: true, Manager: true}},
	}
	for _, tt := range tests {
		got, err := model.DecodePermission(tt.mode)
		if err != nil {
			t.Fatalf("DecodePermission(%d): %v", tt.mode, err)
		}
		if got != tt.want {
			t.Errorf("DecodePermission(%d) = %+v, want %+v", tt.mode, got, tt.want)
		}
		if got.Mode() != tt.mode {
			t.Errorf("Mode() = %d, want %d", got.Mode(), tt.mode)
		}
	}

	for _, bad := range []int{-1, 8, 101} {
		if _, err := model.DecodePermission(bad); err == nil {
			t.Errorf("DecodePermission(%d): expected error", bad)
		}
	}
}

func TestParsePermission(t *testing.T) {
	got, err := model.ParsePermission("5")
	if err != nil {
		t.Fatalf("ParsePermission: %v", err)
	}
	if got != (model.Permission{Member: true, Manager: true}) {
		t.Errorf("ParsePermission(5) = %+v", got)
	}
	if _, err := model.ParsePermission("rw"); err == nil {
		t.Error("ParsePermission(rw): expected error")
	}
}

func TestPermissionsOfJSON(t *testing.T) {
	raw := map[string]any{
		"userone": map[string]any{"member": true, "spectator": false, "manager": true},
		"usertwo": map[string]any{"member": false, "spectator": true, "manager": false},
	}
	got := model.PermissionsOf(raw)
	want := model.Permissions{
		"userone": {Member: true, Manager: true},
		"usertwo": {Spectator: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PermissionsOf = %+v, want %+v", got, want)
	}
	if names := got.Usernames(); !reflect.DeepEqual(names, []string{"userone", "usertwo"}) {
		t.Errorf("Usernames = %v", names)
	}
	if roles := got["userone"].Roles(); !reflect.DeepEqual(roles, []string{"member", "manager"}) {
		t.Errorf("Roles = %v", roles)
	}
}

func TestRecordStrings(t *testing.T) {
	r := model.Record{
		"list":   []string{"a", "b"},
		"single": "a",
		"json":   []any{"x", "y"},
		"empty":  "",
	}
	tests := []struct {
		key  string
		want []string
	}{
		{"list", []string{"a", "b"}},
		{"single", []string{"a"}},
		{"json", []string{"x", "y"}},
		{"empty", nil},
		{"missing", nil},
	}
	for _, tt := range tests {
		if got := r.Strings(tt.key); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Strings(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestRecordInt(t *testing.T) {
	r := model.Record{"a": 3600, "b": float64(60), "c": "x"}
	if v, ok := r.Int("a"); !ok || v != 3600 {
		t.Errorf("Int(a) = %d, %v", v, ok)
	}
	if v, ok := r.Int("b"); !ok || v != 60 {
		t.Errorf("Int(b) = %d, %v", v, ok)
	}
	if _, ok := r.Int("c"); ok {
		t.Error("Int(c): expected !ok")
	}
}
