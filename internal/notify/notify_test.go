package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ehopa/internal/registration/models"
)

func testSummary() models.Summary {
	return models.Summary{
		Record: models.Record{
			GeneratedID: "inhaca_005",
			CaptureDate: "10/03/2024",
			Provider:    "Pedro Sitoe",
			Origin:      "Inhaca",
			Species:     "Pargo",
			Condition:   "Fresco",
			Quantity:    "20,00",
			UnitPrice:   "150,00",
			Coordinates: "-25.96, 32.58",
		},
		Total: "3000,00",
	}
}

func TestFanout(t *testing.T) {
	var got []string
	f := Fanout{
		Func(func(_ context.Context, s models.Summary) { got = append(got, "a:"+s.Record.GeneratedID) }),
		nil,
		Func(func(_ context.Context, s models.Summary) { got = append(got, "b:"+s.Record.GeneratedID) }),
	}
	f.Notify(context.Background(), testSummary())
	assert.Equal(t, []string{"a:inhaca_005", "b:inhaca_005"}, got)
}

func TestMessage(t *testing.T) {
	msg := Message(testSummary())
	assert.Contains(t, msg, "*ID:* inhaca_005\n")
	assert.Contains(t, msg, "*Provedor:* Pedro Sitoe\n")
	assert.Contains(t, msg, "*Quantidade:* 20,00 Kg\n")
	assert.Contains(t, msg, "*Total:* 3000,00 MT\n")
	assert.NotContains(t, msg, "Imagens")

	s := testSummary()
	s.ImageCount = 2
	assert.Contains(t, Message(s), "*Imagens:* 2")
}
