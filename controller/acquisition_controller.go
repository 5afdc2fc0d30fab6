package controller

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"forcedeck/models"
	"forcedeck/utils"
)

var acqLog = utils.Named("acquisition")

// Verdict is the acquisition stage's decision on one sample.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedInvalid
	RejectedUnsuitable
	OutOfOrder
)

var verdictNames = [...]string{"accepted", "rejected_invalid", "rejected_unsuitable", "out_of_order"}

func (v Verdict) String() string {
	if v >= 0 && int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return "unknown"
}

// GatedSample is a sample with its derived metrics and verdict.
type GatedSample struct {
	Sample  models.ForceSample
	Metrics models.Metrics
	Verdict Verdict
}

// Publisher receives the metrics of every in-order sample for real-time
// feedback. Implementations must not block.
type Publisher interface {
	Publish(models.Metrics) bool
}

// AcquisitionController sits between the reader and the recorder. For each
// sample it enforces a non-decreasing sample index, derives metrics and
// gates the sample on validity and the session protocol. Out-of-order
// samples are counted and dropped; everything else is forwarded on Out
// with its verdict. Only accepted samples feed the session summary.
type AcquisitionController struct {
	sessionID uuid.UUID
	protocol  models.Protocol
	live      Publisher

	Out chan GatedSample

	// owned by the processing goroutine (or the Process caller)
	haveLast  bool
	lastIndex uint64

	accepted           uint64
	rejectedInvalid    uint64
	rejectedUnsuitable uint64
	outOfOrder         uint64
	dropped            uint64

	sumMu   sync.Mutex
	summary *summaryAccumulator
}

// NewAcquisitionController starts a new acquisition session for protocol.
// live may be nil.
func NewAcquisitionController(protocol models.Protocol, live Publisher, buffer int) *AcquisitionController {
	if buffer <= 0 {
		buffer = 4096
	}
	return &AcquisitionController{
		sessionID: uuid.New(),
		protocol:  protocol,
		live:      live,
		Out:       make(chan GatedSample, buffer),
		summary:   newSummaryAccumulator(),
	}
}

// SessionID returns the session's UUID string.
func (ac *AcquisitionController) SessionID() string { return ac.sessionID.String() }

// Protocol returns the session protocol.
func (ac *AcquisitionController) Protocol() models.Protocol { return ac.protocol }

// Start consumes in until it is closed or ctx ends, then closes Out.
func (ac *AcquisitionController) Start(ctx context.Context, in <-chan models.ForceSample) {
	go func() {
		defer close(ac.Out)
		for {
			select {
			case <-ctx.Done():
				acqLog.Info("stopped")
				return
			case s, ok := <-in:
				if !ok {
					acqLog.Info("input closed")
					return
				}
				g := ac.Process(s)
				if g.Verdict == OutOfOrder {
					continue
				}
				select {
				case ac.Out <- g:
				default:
					if n := atomic.AddUint64(&ac.dropped, 1); n%1000 == 1 {
						acqLog.Warn("output channel full, dropped=%d", n)
					}
				}
			}
		}
	}()
	acqLog.Info("started (session=%s, protocol=%s)", ac.sessionID, ac.protocol)
}

// Process gates one sample. It is not safe to call concurrently with
// itself or with a running Start loop.
func (ac *AcquisitionController) Process(s models.ForceSample) GatedSample {
	idx := s.SampleIndex()
	if ac.haveLast && idx < ac.lastIndex {
		n := atomic.AddUint64(&ac.outOfOrder, 1)
		if n <= 5 || n%1000 == 0 {
			acqLog.Warn("sample index went back %d -> %d (total=%d)", ac.lastIndex, idx, n)
		}
		return GatedSample{Sample: s, Verdict: OutOfOrder}
	}
	ac.haveLast, ac.lastIndex = true, idx

	m := models.Derive(s)
	g := GatedSample{Sample: s, Metrics: m}
	switch {
	case !m.Valid:
		g.Verdict = RejectedInvalid
		atomic.AddUint64(&ac.rejectedInvalid, 1)
	case !m.Suitable(ac.protocol):
		g.Verdict = RejectedUnsuitable
		atomic.AddUint64(&ac.rejectedUnsuitable, 1)
	default:
		g.Verdict = Accepted
		atomic.AddUint64(&ac.accepted, 1)
		ac.sumMu.Lock()
		ac.summary.add(m)
		ac.sumMu.Unlock()
	}

	if ac.live != nil {
		ac.live.Publish(m)
	}
	return g
}

// AcquisitionStats is a snapshot of the gate counters.
type AcquisitionStats struct {
	Accepted           uint64 `json:"accepted"`
	RejectedInvalid    uint64 `json:"rejected_invalid"`
	RejectedUnsuitable uint64 `json:"rejected_unsuitable"`
	OutOfOrder         uint64 `json:"out_of_order"`
	Dropped            uint64 `json:"dropped"`
}

func (ac *AcquisitionController) Stats() AcquisitionStats {
	return AcquisitionStats{
		Accepted:           atomic.LoadUint64(&ac.accepted),
		RejectedInvalid:    atomic.LoadUint64(&ac.rejectedInvalid),
		RejectedUnsuitable: atomic.LoadUint64(&ac.rejectedUnsuitable),
		OutOfOrder:         atomic.LoadUint64(&ac.outOfOrder),
		Dropped:            atomic.LoadUint64(&ac.dropped),
	}
}

// LogStats prints the gate counters.
func (ac *AcquisitionController) LogStats() {
	st := ac.Stats()
	acqLog.Info("  gate     accepted=%d  invalid=%d  unsuitable=%d  out_of_order=%d  dropped=%d",
		st.Accepted, st.RejectedInvalid, st.RejectedUnsuitable, st.OutOfOrder, st.Dropped)
}

// Summary aggregates the accepted samples seen so far.
func (ac *AcquisitionController) Summary() SessionSummary {
	ac.sumMu.Lock()
	s := ac.summary.summarize()
	ac.sumMu.Unlock()

	s.SessionID = ac.SessionID()
	s.Protocol = ac.protocol.String()
	s.Stats = ac.Stats()
	return s
}
