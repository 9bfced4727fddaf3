package replay

// BrowserTape is the camelCase JSON handed to the web viewer. It drops the
// decoded envelopes and keeps one line per deal for the bidding-box header.
type BrowserTape struct {
	TapeVersion   int            `json:"tapeVersion"`
	TableID       string         `json:"tableId"`
	Board         int            `json:"board,omitempty"`
	Dealer        string         `json:"dealer"`
	Vulnerability string         `json:"vulnerability"`
	HeroSeat      string         `json:"heroSeat,omitempty"`
	Result        string         `json:"result,omitempty"`
	Complete      bool           `json:"complete"`
	Frames        []BrowserFrame `json:"frames"`
}

type BrowserFrame struct {
	Kind        string `json:"kind"`
	Seq         uint64 `json:"seq"`
	EnvelopeB64 string `json:"envelopeB64"`
}

// ForBrowser flattens the tape for the wasm bridge.
func (t *ReplayTape) ForBrowser() *BrowserTape {
	if t == nil {
		return nil
	}
	out := &BrowserTape{
		TapeVersion:   t.TapeVersion,
		TableID:       t.TableID,
		Board:         t.Board,
		Dealer:        t.Dealer,
		Vulnerability: t.Vulnerability,
		HeroSeat:      t.HeroSeat,
		Result:        t.Result,
		Complete:      t.Result != "",
		Frames:        make([]BrowserFrame, 0, len(t.Events)),
	}
	for _, e := range t.Events {
		out.Frames = append(out.Frames, BrowserFrame{Kind: e.Type, Seq: e.Seq, EnvelopeB64: e.EnvelopeB64})
	}
	return out
}
