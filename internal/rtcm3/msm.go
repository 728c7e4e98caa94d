package rtcm3

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strconv"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/gnss"
	"gnssrx/internal/gnsstime"
)

const maxCells = 64

var (
	msmRoughRate  = bitfield.Fixed{Name: "rough_rate", Bits: 14, Signed: true, Scale: 1, HasNull: true, Null: -8192}
	msmFineRate   = bitfield.Fixed{Name: "fine_rate", Bits: 15, Signed: true, Scale: 0.0001, HasNull: true, Null: -16384}
	msmFinePR     = bitfield.Fixed{Name: "fine_pseudorange", Bits: 15, Signed: true, Scale: p2(24) * RangeMs, HasNull: true, Null: -16384}
	msmFinePhase  = bitfield.Fixed{Name: "fine_phaserange", Bits: 22, Signed: true, Scale: p2(29) * RangeMs, HasNull: true, Null: -2097152}
	msmFinePRX    = bitfield.Fixed{Name: "fine_pseudorange", Bits: 20, Signed: true, Scale: p2(29) * RangeMs, HasNull: true, Null: -524288}
	msmFinePhaseX = bitfield.Fixed{Name: "fine_phaserange", Bits: 24, Signed: true, Scale: p2(31) * RangeMs, HasNull: true, Null: -8388608}
	msmCNR        = bitfield.Fixed{Name: "cnr", Bits: 6, Scale: 1, HasNull: true, Null: 0}
	msmCNRX       = bitfield.Fixed{Name: "cnr", Bits: 10, Scale: 0.0625, HasNull: true, Null: 0}
)

// MSMHeader is the common header of multiple signal messages.
type MSMHeader struct {
	StationID uint16 `json:"station_id"`
	// EpochMs is milliseconds of week (GPS, Galileo, SBAS, QZSS, BeiDou) or
	// milliseconds of day in Moscow time (GLONASS).
	EpochMs           uint32 `json:"epoch_ms"`
	DayOfWeek         uint8  `json:"day_of_week,omitempty"`
	MultipleMessage   bool   `json:"multiple_message"`
	IODS              uint8  `json:"iods"`
	ClockSteering     uint8  `json:"clock_steering"`
	ExternalClock     uint8  `json:"external_clock"`
	Smoothing         bool   `json:"smoothing"`
	SmoothingInterval uint8  `json:"smoothing_interval"`
}

// MSM is a multiple signal message, levels 4 to 7.
type MSM struct {
	Number     uint16         `json:"number"`
	System     System         `json:"system"`
	Level      int            `json:"level"`
	Header     MSMHeader      `json:"header"`
	Epoch      time.Time      `json:"epoch"`
	Satellites []MSMSatellite `json:"satellites"`
}

type MSMSatellite struct {
	ID int `json:"id"`
	// RoughRange in metres; nil when the receiver flagged it invalid.
	RoughRange   *float64    `json:"rough_range_m,omitempty"`
	ExtendedInfo *uint8      `json:"extended_info,omitempty"`
	RoughRate    *float64    `json:"rough_rate_mps,omitempty"`
	Signals      []MSMSignal `json:"signals"`
}

type MSMSignal struct {
	ID             int      `json:"id"`
	Code           string   `json:"code,omitempty"`
	Pseudorange    *float64 `json:"pseudorange_m,omitempty"`
	PhaseRange     *float64 `json:"phaserange_m,omitempty"`
	CarrierCycles  *float64 `json:"carrier_cycles,omitempty"`
	PhaseRangeRate *float64 `json:"phaserange_rate_mps,omitempty"`
	Doppler        *float64 `json:"doppler_hz,omitempty"`
	LockIndicator  uint16   `json:"lock_indicator"`
	LockTimeMs     uint32   `json:"lock_time_ms"`
	HalfCycle      bool     `json:"half_cycle"`
	CNR            *float64 `json:"cnr_dbhz,omitempty"`
}

func (m *MSM) Protocol() gnss.Protocol { return gnss.ProtocolRTCM3 }
func (m *MSM) Key() string             { return strconv.Itoa(int(m.Number)) }

func (m *MSM) extended() bool { return m.Level == 6 || m.Level == 7 }
func (m *MSM) hasRates() bool { return m.Level == 5 || m.Level == 7 }

// GLONASS MSM5/7 carry the frequency channel in the extended info.
func (s *MSMSatellite) freqChannel(sys System) *int {
	if sys != SystemGLONASS || s.ExtendedInfo == nil || *s.ExtendedInfo > 13 {
		return nil
	}
	k := int(*s.ExtendedInfo) - 7
	return &k
}

// lockTimeMs converts a lock time indicator to the minimum lock time.
func lockTimeMs(ind uint16, extended bool) uint32 {
	if !extended {
		if ind == 0 {
			return 0
		}
		return 1 << (uint(ind) + 4)
	}
	switch {
	case ind < 64:
		return uint32(ind)
	case ind == 704:
		return 67108864
	case ind > 704:
		return 0
	}
	// Piecewise linear: slope doubles every 32 indicator steps.
	var offset uint32
	k := uint(1)
	lo := uint32(64)
	for uint32(ind) >= lo+32 {
		offset += (uint32(1) << (k - 1)) * lo
		k++
		lo += 32
	}
	offset += (uint32(1) << (k - 1)) * lo
	return uint32(1)<<k*uint32(ind) - offset
}

func (m *MSM) Decode(body []byte, now time.Time) error {
	r := bitfield.NewReader(body, 0)
	m.Number = uint16(r.Uint(12))
	sys, ok := msmBase[m.Number/10*10]
	m.Level = int(m.Number % 10)
	if !ok || m.Level < 4 || m.Level > 7 {
		return fmt.Errorf("rtcm3: message %d is not MSM4-7", m.Number)
	}
	m.System = sys

	h := &m.Header
	h.StationID = uint16(r.Uint(12))
	if sys == SystemGLONASS {
		h.DayOfWeek = uint8(r.Uint(3))
		h.EpochMs = r.Uint(27)
	} else {
		h.EpochMs = r.Uint(30)
	}
	h.MultipleMessage = r.Bool()
	h.IODS = uint8(r.Uint(3))
	r.Skip(7)
	h.ClockSteering = uint8(r.Uint(2))
	h.ExternalClock = uint8(r.Uint(2))
	h.Smoothing = r.Bool()
	h.SmoothingInterval = uint8(r.Uint(3))

	satMask := r.Uint64(64)
	sigMask := r.Uint(32)
	if r.Err() != nil {
		return fmt.Errorf("rtcm3: %d header: %w", m.Number, r.Err())
	}
	var satIDs, sigIDs []int
	for i := 0; i < 64; i++ {
		if satMask&(1<<uint(63-i)) != 0 {
			satIDs = append(satIDs, i+1)
		}
	}
	for i := 0; i < 32; i++ {
		if sigMask&(1<<uint(31-i)) != 0 {
			sigIDs = append(sigIDs, i+1)
		}
	}
	nsat, nsig := len(satIDs), len(sigIDs)
	if nsat*nsig > maxCells {
		return fmt.Errorf("rtcm3: %d: %d satellites x %d signals exceeds %d cells", m.Number, nsat, nsig, maxCells)
	}
	cells := make([]bool, nsat*nsig)
	for i := range cells {
		cells[i] = r.Bool()
	}

	m.Satellites = make([]MSMSatellite, nsat)
	intMs := make([]uint32, nsat)
	for i := range m.Satellites {
		m.Satellites[i].ID = satIDs[i]
		intMs[i] = r.Uint(8)
	}
	if m.hasRates() {
		for i := range m.Satellites {
			v := uint8(r.Uint(4))
			m.Satellites[i].ExtendedInfo = &v
		}
	}
	for i := range m.Satellites {
		mod := r.Uint(10)
		if intMs[i] != 255 {
			v := (float64(intMs[i]) + float64(mod)*p2(10)) * RangeMs
			m.Satellites[i].RoughRange = &v
		}
	}
	if m.hasRates() {
		for i := range m.Satellites {
			m.Satellites[i].RoughRate = r.Fixed(msmRoughRate)
		}
	}

	type cellRef struct{ sat, sig int }
	refs := make([]cellRef, 0, len(cells))
	for i := 0; i < nsat; i++ {
		for j := 0; j < nsig; j++ {
			if cells[i*nsig+j] {
				refs = append(refs, cellRef{i, j})
			}
		}
	}
	sigs := make([]MSMSignal, len(refs))
	prF, cpF, lockBits, cnrF := msmFinePR, msmFinePhase, 4, msmCNR
	if m.extended() {
		prF, cpF, lockBits, cnrF = msmFinePRX, msmFinePhaseX, 10, msmCNRX
	}
	fine := make([]*float64, len(refs))
	phase := make([]*float64, len(refs))
	for k := range refs {
		fine[k] = r.Fixed(prF)
	}
	for k := range refs {
		phase[k] = r.Fixed(cpF)
	}
	for k := range refs {
		sigs[k].LockIndicator = uint16(r.Uint(lockBits))
		sigs[k].LockTimeMs = lockTimeMs(sigs[k].LockIndicator, m.extended())
	}
	for k := range refs {
		sigs[k].HalfCycle = r.Bool()
	}
	for k := range refs {
		sigs[k].CNR = r.Fixed(cnrF)
	}
	var rates []*float64
	if m.hasRates() {
		rates = make([]*float64, len(refs))
		for k := range refs {
			rates[k] = r.Fixed(msmFineRate)
		}
	}
	if err := r.Finish(len(body) * 8); err != nil {
		return fmt.Errorf("rtcm3: %d: %w", m.Number, err)
	}

	for k, ref := range refs {
		sat := &m.Satellites[ref.sat]
		s := &sigs[k]
		s.ID = sigIDs[ref.sig]
		s.Code = SignalCode(sys, s.ID)
		if sat.RoughRange != nil && fine[k] != nil {
			v := *sat.RoughRange + *fine[k]
			s.Pseudorange = &v
		}
		freq, haveFreq := CarrierFrequency(sys, s.Code, sat.freqChannel(sys))
		if sat.RoughRange != nil && phase[k] != nil {
			v := *sat.RoughRange + *phase[k]
			s.PhaseRange = &v
			if haveFreq {
				c := v * freq / SpeedOfLight
				s.CarrierCycles = &c
			}
		}
		if rates != nil && sat.RoughRate != nil && rates[k] != nil {
			v := *sat.RoughRate + *rates[k]
			s.PhaseRangeRate = &v
			if haveFreq {
				d := -v * freq / SpeedOfLight
				s.Doppler = &d
			}
		}
		sat.Signals = append(sat.Signals, *s)
	}

	switch sys {
	case SystemGLONASS:
		m.Epoch = gnsstime.ResolveGLONASS(float64(h.EpochMs)/1000, now)
	case SystemBeiDou:
		m.Epoch = gnsstime.ResolveBDTTOW(float64(h.EpochMs)/1000, now)
	default:
		m.Epoch = gnsstime.ResolveTOW(float64(h.EpochMs)/1000, now)
	}
	return nil
}

// quantizeRough splits a rough range into whole and 1/1024 milliseconds.
func quantizeRough(v *float64) (intMs, mod uint32, q float64, ok bool) {
	if v == nil || *v < 0 {
		return 255, 0, 0, false
	}
	ms := *v / RangeMs
	whole := math.Floor(ms)
	frac := math.Round((ms - whole) * 1024)
	if frac >= 1024 {
		whole++
		frac = 0
	}
	if whole > 254 {
		return 255, 0, 0, false
	}
	intMs, mod = uint32(whole), uint32(frac)
	return intMs, mod, (float64(intMs) + float64(mod)*p2(10)) * RangeMs, true
}

func diff(a *float64, b float64, ok bool) *float64 {
	if a == nil || !ok {
		return nil
	}
	v := *a - b
	return &v
}

// Encode builds the message from Satellites. Satellite and signal ids are
// taken as given; the masks are derived from them.
func (m *MSM) Encode() ([]byte, error) {
	base := systemBase(m.System)
	if base == 0 || m.Level < 4 || m.Level > 7 {
		return nil, fmt.Errorf("rtcm3: cannot encode MSM%d for %s", m.Level, m.System)
	}
	sats := append([]MSMSatellite(nil), m.Satellites...)
	sort.Slice(sats, func(i, j int) bool { return sats[i].ID < sats[j].ID })

	var satMask uint64
	var sigMask uint32
	for i, s := range sats {
		if s.ID < 1 || s.ID > 64 || (i > 0 && sats[i-1].ID == s.ID) {
			return nil, fmt.Errorf("rtcm3: invalid or duplicate satellite id %d", s.ID)
		}
		satMask |= 1 << uint(64-s.ID)
		for _, sg := range s.Signals {
			if sg.ID < 1 || sg.ID > 32 {
				return nil, fmt.Errorf("rtcm3: invalid signal id %d", sg.ID)
			}
			sigMask |= 1 << uint(32-sg.ID)
		}
	}
	nsig := bits.OnesCount32(sigMask)
	if len(sats)*nsig > maxCells {
		return nil, fmt.Errorf("rtcm3: %d satellites x %d signals exceeds %d cells", len(sats), nsig, maxCells)
	}
	var sigIDs []int
	for i := 0; i < 32; i++ {
		if sigMask&(1<<uint(31-i)) != 0 {
			sigIDs = append(sigIDs, i+1)
		}
	}

	w := bitfield.NewWriter(128)
	h := m.Header
	w.PutUint(12, uint32(base)+uint32(m.Level))
	w.PutUint(12, uint32(h.StationID))
	if m.System == SystemGLONASS {
		w.PutUint(3, uint32(h.DayOfWeek))
		w.PutUint(27, h.EpochMs)
	} else {
		w.PutUint(30, h.EpochMs)
	}
	w.PutBool(h.MultipleMessage)
	w.PutUint(3, uint32(h.IODS))
	w.PutUint(7, 0)
	w.PutUint(2, uint32(h.ClockSteering))
	w.PutUint(2, uint32(h.ExternalClock))
	w.PutBool(h.Smoothing)
	w.PutUint(3, uint32(h.SmoothingInterval))
	w.PutUint64(64, satMask)
	w.PutUint(32, sigMask)

	var cells []*MSMSignal
	var cellSat []int
	for i := range sats {
		for _, id := range sigIDs {
			var found *MSMSignal
			for k := range sats[i].Signals {
				if sats[i].Signals[k].ID == id {
					found = &sats[i].Signals[k]
					break
				}
			}
			w.PutBool(found != nil)
			if found != nil {
				cells = append(cells, found)
				cellSat = append(cellSat, i)
			}
		}
	}

	rough := make([]float64, len(sats))
	roughOK := make([]bool, len(sats))
	mods := make([]uint32, len(sats))
	for i := range sats {
		var intMs uint32
		intMs, mods[i], rough[i], roughOK[i] = quantizeRough(sats[i].RoughRange)
		w.PutUint(8, intMs)
	}
	if m.hasRates() {
		for i := range sats {
			var v uint8
			if sats[i].ExtendedInfo != nil {
				v = *sats[i].ExtendedInfo
			}
			w.PutUint(4, uint32(v))
		}
	}
	for i := range sats {
		w.PutUint(10, mods[i])
	}
	roughRate := make([]float64, len(sats))
	roughRateOK := make([]bool, len(sats))
	if m.hasRates() {
		for i := range sats {
			raw, _ := msmRoughRate.EncodeOpt(sats[i].RoughRate)
			w.PutFixed(msmRoughRate, sats[i].RoughRate)
			if sats[i].RoughRate != nil {
				roughRate[i], roughRateOK[i] = float64(raw), true
			}
		}
	}

	prF, cpF, lockBits, cnrF := msmFinePR, msmFinePhase, 4, msmCNR
	if m.extended() {
		prF, cpF, lockBits, cnrF = msmFinePRX, msmFinePhaseX, 10, msmCNRX
	}
	for k, c := range cells {
		i := cellSat[k]
		w.PutFixed(prF, diff(c.Pseudorange, rough[i], roughOK[i]))
	}
	for k, c := range cells {
		i := cellSat[k]
		w.PutFixed(cpF, diff(c.PhaseRange, rough[i], roughOK[i]))
	}
	for _, c := range cells {
		w.PutUint(lockBits, uint32(c.LockIndicator))
	}
	for _, c := range cells {
		w.PutBool(c.HalfCycle)
	}
	for _, c := range cells {
		w.PutFixed(cnrF, c.CNR)
	}
	if m.hasRates() {
		for k, c := range cells {
			i := cellSat[k]
			w.PutFixed(msmFineRate, diff(c.PhaseRangeRate, roughRate[i], roughRateOK[i]))
		}
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), w.Clamped()
}
