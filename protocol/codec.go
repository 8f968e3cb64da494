package protocol

import (
	"encoding/json"
	"fmt"
)

// envelope is the frame shape in both directions: a discriminator plus the
// type-specific payload.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrUnknownIntent marks frames with an unrecognized discriminator. The
// session layer drops these (protocol failure, not a kernel concern).
type ErrUnknownIntent struct {
	Type string
}

func (e *ErrUnknownIntent) Error() string {
	return fmt.Sprintf("protocol: unknown intent type %q", e.Type)
}

var intentFactories = map[string]func() Intent{
	Move{}.IntentType():            func() Intent { return &Move{} },
	SendChat{}.IntentType():        func() Intent { return &SendChat{} },
	PlaceFurni{}.IntentType():      func() Intent { return &PlaceFurni{} },
	RotateFurni{}.IntentType():     func() Intent { return &RotateFurni{} },
	PickupFurni{}.IntentType():     func() Intent { return &PickupFurni{} },
	Sit{}.IntentType():             func() Intent { return &Sit{} },
	Stand{}.IntentType():           func() Intent { return &Stand{} },
	UseFurni{}.IntentType():        func() Intent { return &UseFurni{} },
	RecolorFurni{}.IntentType():    func() Intent { return &RecolorFurni{} },
	BuyItem{}.IntentType():         func() Intent { return &BuyItem{} },
	ChangeRoom{}.IntentType():      func() Intent { return &ChangeRoom{} },
	RequestProfile{}.IntentType():  func() Intent { return &RequestProfile{} },
	RequestUserList{}.IntentType(): func() Intent { return &RequestUserList{} },
}

// DecodeIntent parses one inbound frame into its typed intent.
func DecodeIntent(data []byte) (Intent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: malformed frame: %w", err)
	}
	factory, ok := intentFactories[env.Type]
	if !ok {
		return nil, &ErrUnknownIntent{Type: env.Type}
	}
	intent := factory()
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, intent); err != nil {
			return nil, fmt.Errorf("protocol: malformed %s payload: %w", env.Type, err)
		}
	}
	return intent, nil
}

// EncodeEvent serializes one outbound event into its envelope frame.
func EncodeEvent(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", ev.EventType(), err)
	}
	return json.Marshal(envelope{Type: ev.EventType(), Payload: payload})
}
