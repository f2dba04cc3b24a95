// Package events implementa el bus de notificaciones de cambio de sesión.
//
// Entrega ordenada por orden de suscripción, a lo sumo una vez por
// transición. Las transiciones no-op (sesión nueva igual en profundidad a la
// anterior) se suprimen. La entrega es síncrona en la goroutine que publica:
// el coordinator es el único dueño de la sesión, así que los suscriptores
// observan estados, nunca carreras.
package events

import (
	"sync"

	"github.com/dropDatabas3/sessionkit/internal/domain"
	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
	"github.com/google/uuid"
)

// Listener recibe la sesión nueva en cada transición.
// No debe lanzar pánico ni bloquear; los errores se observan vía la sesión.
type Listener func(domain.Session)

// Subscription representa una suscripción activa al bus.
type Subscription struct {
	id  string
	bus *Bus
}

// ID retorna el identificador de la suscripción.
func (s *Subscription) ID() string { return s.id }

// Cancel da de baja la suscripción. Idempotente.
func (s *Subscription) Cancel() {
	s.bus.unsubscribe(s.id)
}

type entry struct {
	id string
	fn Listener
}

// Bus notifica cambios de sesión a los suscriptores.
type Bus struct {
	mu   sync.Mutex
	subs []entry
	last domain.Session
	// primed marca si ya se publicó al menos una transición.
	primed bool
}

// New crea un bus vacío.
func New() *Bus {
	return &Bus{}
}

// Subscribe registra un listener. Retorna la suscripción para cancelarla.
func (b *Bus) Subscribe(fn Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.NewString()
	b.subs = append(b.subs, entry{id: id, fn: fn})
	return &Subscription{id: id, bus: b}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.subs {
		if e.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish notifica la sesión nueva a todos los suscriptores en orden de
// suscripción. Si la sesión es igual en profundidad a la última publicada,
// no se entrega nada.
func (b *Bus) Publish(s domain.Session) {
	b.mu.Lock()
	if b.primed && b.last.Equal(s) {
		b.mu.Unlock()
		return
	}
	b.last = s
	b.primed = true
	// Copia del slice: un listener puede suscribir/cancelar durante la entrega.
	subs := make([]entry, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	log := logger.Named("events.bus")
	for _, e := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("listener panicked",
						logger.SubscriberID(e.id),
						logger.Any("panic", r),
					)
				}
			}()
			e.fn(s)
		}()
	}
}

// Len retorna la cantidad de suscriptores activos.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
