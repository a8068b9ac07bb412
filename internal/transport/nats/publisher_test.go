package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/autorovers/autorovers/internal/domain/classify"
	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
)

func startNATS(t *testing.T) (*natsserver.Server, *nats.Conn) {
	t.Helper()
	ns, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatalf("nats server: %v", err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
	})
	return ns, nc
}

func TestPublishSelection(t *testing.T) {
	_, nc := startNATS(t)
	sub, err := nc.SubscribeSync("autorovers.selection.>")
	if err != nil {
		t.Fatal(err)
	}

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := New(nc, "autorovers", nil)
	p.now = func() time.Time { return fixed }

	s, err := domsel.New([]vehicle.Reference{
		{ID: 4, Slug: "a", VehicleType: "Car"},
		{ID: 9, Slug: "b", VehicleType: "Car"},
	}, classify.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.PublishSelection(context.Background(), "sess.1", s); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("next msg: %v", err)
	}
	if msg.Subject != "autorovers.selection.sess_1" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	var ev SelectionEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Owner != "sess.1" || ev.VehicleType != "Car" || len(ev.IDs) != 2 || !ev.At.Equal(fixed) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestPublishComparison_Insufficient(t *testing.T) {
	_, nc := startNATS(t)
	sub, err := nc.SubscribeSync("autorovers.compare.u1")
	if err != nil {
		t.Fatal(err)
	}
	p := New(nc, "autorovers", nil)

	res := compareuc.Result{
		Insufficient: true,
		Dropped:      []compareuc.Drop{{ID: 2, Slug: "b", Cause: compareuc.CauseFetch, Reason: "timeout"}},
	}
	if err := p.PublishComparison(context.Background(), "u1", res); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("next msg: %v", err)
	}
	var ev CompareEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatal(err)
	}
	if !ev.Insufficient || len(ev.Dropped) != 1 || ev.Dropped[0].Cause != compareuc.CauseFetch {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestSubjectToken(t *testing.T) {
	for in, want := range map[string]string{
		"":           "_",
		"plain-uuid": "plain-uuid",
		"a.b*c>d e":  "a_b_c_d_e",
	} {
		if got := subjectToken(in); got != want {
			t.Errorf("subjectToken(%q) = %q, want %q", in, got, want)
		}
	}
}
