// Package notify hands submitted registrations to outbound channels.
// Delivery is best-effort: a channel that fails logs and moves on.
package notify

import (
	"context"
	"fmt"
	"strings"

	"ehopa/internal/registration/models"
	"ehopa/internal/registration/ports"
)

// Fanout notifies every channel in order.
type Fanout []ports.Notifier

func (f Fanout) Notify(ctx context.Context, summary models.Summary) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, summary)
		}
	}
}

// Func adapts a function to ports.Notifier.
type Func func(ctx context.Context, summary models.Summary)

func (f Func) Notify(ctx context.Context, summary models.Summary) {
	f(ctx, summary)
}

// Message renders a registration as the text an agent forwards to the
// coordination team.
func Message(s models.Summary) string {
	r := s.Record
	var b strings.Builder
	b.WriteString("*Novo Registo de Pescado*\n\n")
	fmt.Fprintf(&b, "*ID:* %s\n", r.GeneratedID)
	fmt.Fprintf(&b, "*Data de Captura:* %s\n", r.CaptureDate)
	fmt.Fprintf(&b, "*Provedor:* %s\n", r.Provider)
	fmt.Fprintf(&b, "*Origem:* %s\n", r.Origin)
	fmt.Fprintf(&b, "*Espécie:* %s\n", r.Species)
	fmt.Fprintf(&b, "*Estado:* %s\n", r.Condition)
	fmt.Fprintf(&b, "*Quantidade:* %s Kg\n", r.Quantity)
	fmt.Fprintf(&b, "*Preço Unit.:* %s MT/Kg\n", r.UnitPrice)
	fmt.Fprintf(&b, "*Total:* %s MT\n", s.Total)
	fmt.Fprintf(&b, "*Localização:* %s", r.Coordinates)
	if s.ImageCount > 0 {
		fmt.Fprintf(&b, "\n*Imagens:* %d", s.ImageCount)
	}
	return b.String()
}
