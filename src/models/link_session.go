package models

// Phase is a step of the link handshake.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLinkTokenRequested
	PhaseLinkTokenReady
	PhaseLinking
	PhasePublicTokenReceived
	PhaseExchangingToken
	PhaseAccessTokenReady
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseIdle:                "Idle",
	PhaseLinkTokenRequested:  "LinkTokenRequested",
	PhaseLinkTokenReady:      "LinkTokenReady",
	PhaseLinking:             "Linking",
	PhasePublicTokenReceived: "PublicTokenReceived",
	PhaseExchangingToken:     "ExchangingToken",
	PhaseAccessTokenReady:    "AccessTokenReady",
	PhaseFailed:              "Failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether no further transition happens without a restart.
func (p Phase) Terminal() bool {
	return p == PhaseAccessTokenReady || p == PhaseFailed
}

// LinkSession holds the client side of one link handshake. It is never
// persisted.
type LinkSession struct {
	ID            string `json:"id"`
	LinkToken     string `json:"link_token"`
	PublicToken   string `json:"public_token"`
	AccessToken   string `json:"access_token"`
	Phase         Phase  `json:"phase"`
	FailureReason string `json:"failure_reason,omitempty"`
}
