package quiz

// TargetKind selects the audience of an emitted event.
type TargetKind int

const (
	// TargetPlayers fans out to every participant connection of the code.
	TargetPlayers TargetKind = iota
	// TargetAdmins fans out to every admin connection of the code.
	TargetAdmins
	// TargetPlayer delivers to a single player's connection.
	TargetPlayer
)

// Target names the recipients of one effect.
type Target struct {
	Kind     TargetKind
	PlayerID string // set when Kind == TargetPlayer
}

// Effect is one outbound notification produced by an engine operation. The
// engine never talks to transports directly; a dispatcher delivers effects
// after the mutation completes.
type Effect struct {
	Event   string
	Payload any
	Target  Target
}

func toPlayers(event string, payload any) Effect {
	return Effect{Event: event, Payload: payload, Target: Target{Kind: TargetPlayers}}
}

func toAdmins(event string, payload any) Effect {
	return Effect{Event: event, Payload: payload, Target: Target{Kind: TargetAdmins}}
}

func toPlayer(playerID, event string, payload any) Effect {
	return Effect{Event: event, Payload: payload, Target: Target{Kind: TargetPlayer, PlayerID: playerID}}
}
