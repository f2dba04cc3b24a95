package events

import (
	"testing"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/stretchr/testify/require"
)

func authed(id string) domain.Session {
	return domain.Authenticated(domain.Identity{ID: id, Provider: domain.ProviderPassword})
}

func TestBus_DeliveryInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string

	b.Subscribe(func(domain.Session) { order = append(order, "first") })
	b.Subscribe(func(domain.Session) { order = append(order, "second") })
	b.Subscribe(func(domain.Session) { order = append(order, "third") })

	b.Publish(authed("u1"))
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_NoOpTransitionSuppressed(t *testing.T) {
	b := New()
	count := 0
	b.Subscribe(func(domain.Session) { count++ })

	b.Publish(authed("u1"))
	b.Publish(authed("u1")) // deep-equal, no delivery
	require.Equal(t, 1, count)

	b.Publish(authed("u2"))
	require.Equal(t, 2, count)
}

func TestBus_FirstPublishAlwaysDelivered(t *testing.T) {
	b := New()
	count := 0
	b.Subscribe(func(domain.Session) { count++ })

	// La sesión cero coincide con el valor interno inicial del bus; aun así
	// la primera publicación debe entregarse.
	b.Publish(domain.Session{})
	require.Equal(t, 1, count)
}

func TestBus_Cancel(t *testing.T) {
	b := New()
	count := 0
	sub := b.Subscribe(func(domain.Session) { count++ })

	b.Publish(authed("u1"))
	sub.Cancel()
	sub.Cancel() // idempotente
	b.Publish(authed("u2"))

	require.Equal(t, 1, count)
	require.Equal(t, 0, b.Len())
}

func TestBus_ListenerPanicDoesNotStopDelivery(t *testing.T) {
	b := New()
	got := false
	b.Subscribe(func(domain.Session) { panic("boom") })
	b.Subscribe(func(domain.Session) { got = true })

	b.Publish(authed("u1"))
	require.True(t, got)
}

func TestBus_SubscribeDuringDelivery(t *testing.T) {
	b := New()
	lateCalls := 0
	b.Subscribe(func(domain.Session) {
		if b.Len() == 1 {
			b.Subscribe(func(domain.Session) { lateCalls++ })
		}
	})

	b.Publish(authed("u1"))
	// El suscriptor tardío no recibe la transición en curso.
	require.Equal(t, 0, lateCalls)

	b.Publish(authed("u2"))
	require.Equal(t, 1, lateCalls)
}
