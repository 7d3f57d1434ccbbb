// Copyright (C) 2019-2024, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// approval-sim replays a scripted approval scenario against a single
// relay block: it builds a Tracker over a synthetic context, elevates it
// to an Announcer for validator 0, feeds in assignments and approval
// votes from the other simulated validators (each one round-tripped
// through the gossip wire codec), advances AnV slots, and prints the
// resulting per-candidate approval status.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/approval"
	"github.com/luxfi/approval/announcer"
	"github.com/luxfi/approval/config"
	"github.com/luxfi/approval/criteria"
	"github.com/luxfi/approval/metrics"
	"github.com/luxfi/approval/stories"
	"github.com/luxfi/approval/tracker"
	"github.com/luxfi/approval/vrf"
	"github.com/luxfi/approval/wire"
)

var logger = slog.Default().With("module", "approval-sim")

// Scenario is the JSON shape the -scenario flag loads. Validator 0 is the
// local announcer; validators 1..N-1 are simulated remote checkers whose
// announcements are wire-encoded and verified exactly as gossip would be.
type Scenario struct {
	RelaySlot        uint64            `json:"relaySlot"`
	Epoch            uint64            `json:"epoch"`
	NumDelayTranches uint32            `json:"numDelayTranches"`
	NumSamples       uint16            `json:"numSamples"`
	ParaIDsByCore    []approval.ParaID `json:"paraIDsByCore"`
	AllowedParaIDs   []approval.ParaID `json:"allowedParaIDs"`
	Validators       int               `json:"validators"`
	Seed             int64             `json:"seed"`
	Events           []Event           `json:"events"`
}

// Event is one step of the script. Op selects which fields apply:
//
//	assign       validator announces under criterion ("modulo"/"delay"/"equivocation")
//	approve      validator votes approval for paraID
//	approveMine  the local announcer approves its own assignment on paraID
//	equivocation an equivocation for paraID with candidate hash becomes known
//	advance      the AnV clock moves forward by slots sub-slots
type Event struct {
	Op        string          `json:"op"`
	Validator int             `json:"validator"`
	ParaID    approval.ParaID `json:"paraID"`
	Criterion string          `json:"criterion"`
	Candidate string          `json:"candidate"`
	Slots     uint64          `json:"slots"`
}

func main() {
	scenarioPath := flag.String("scenario", "", "JSON scenario file (empty for the built-in demo scenario)")
	network := flag.String("network", "local", "ApprovalTargets preset: mainnet, testnet, or local")
	showMetrics := flag.Bool("metrics", false, "Dump the prometheus counters after the run")
	flag.Parse()

	var targets tracker.ApprovalTargets
	switch *network {
	case "mainnet":
		targets = config.MainnetTargets
	case "testnet":
		targets = config.TestnetTargets
	case "local":
		targets = config.LocalTargets
	default:
		logger.Error("Invalid network type", "network", *network)
		os.Exit(1)
	}

	scenario := builtinScenario()
	if *scenarioPath != "" {
		data, err := os.ReadFile(*scenarioPath)
		if err != nil {
			logger.Error("Failed to read scenario", "path", *scenarioPath, "error", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &scenario); err != nil {
			logger.Error("Failed to parse scenario", "path", *scenarioPath, "error", err)
			os.Exit(1)
		}
	}

	if err := run(scenario, targets, *network, *showMetrics); err != nil {
		logger.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(sc Scenario, targets tracker.ApprovalTargets, network string, showMetrics bool) error {
	ctx := approval.ApprovalContext{
		ContextID: approval.ContextID{
			RelaySlot: approval.RelaySlot(sc.RelaySlot),
			Epoch:     approval.Epoch(sc.Epoch),
		},
		NumCores:         uint32(len(sc.ParaIDsByCore)),
		NumDelayTranches: sc.NumDelayTranches,
		NumSamples:       sc.NumSamples,
		ParaIDsByCore:    sc.ParaIDsByCore,
		AllowedParaIDs:   sc.AllowedParaIDs,
	}
	if err := ctx.Validate(); err != nil {
		return fmt.Errorf("invalid scenario context: %w", err)
	}

	src := rand.New(rand.NewSource(sc.Seed))
	var relayVRFOut [32]byte
	src.Read(relayVRFOut[:])
	relayStory := stories.TrustedRelayVRFStory(relayVRFOut)
	equivStory := stories.NewRelayEquivocationStory(ctx.BlockHash)

	keys := make([]*vrf.SecretKey, sc.Validators)
	for i := range keys {
		key, err := vrf.GenerateSecretKey(rand.New(rand.NewSource(sc.Seed + int64(i) + 1)))
		if err != nil {
			return fmt.Errorf("generating validator %d key: %w", i, err)
		}
		keys[i] = key
	}

	reg := prometheus.NewRegistry()
	set, err := metrics.NewSet(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	trk := tracker.New(ctx, relayStory, equivStory, targets, set)
	for _, paraID := range sc.ParaIDsByCore {
		if paraID != 0 {
			trk.InitializeCandidate(paraID)
		}
	}

	ann, err := announcer.IntoAnnouncer(trk, keys[0], announcer.WithMetrics(set))
	if err != nil {
		return fmt.Errorf("building announcer: %w", err)
	}

	fmt.Printf("\n=== Approval Checker Simulator ===\n")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Network preset:       %s\n", network)
	fmt.Printf("  Relay slot / epoch:   %d / %d\n", sc.RelaySlot, sc.Epoch)
	fmt.Printf("  Cores:                %d\n", len(sc.ParaIDsByCore))
	fmt.Printf("  Allowed paraids:      %v\n", sc.AllowedParaIDs)
	fmt.Printf("  Delay tranches:       %d\n", sc.NumDelayTranches)
	fmt.Printf("  Validators:           %d (validator 0 is the announcer)\n", sc.Validators)
	fmt.Printf("  Relay-VRF target:     %d checkers\n", targets.RelayVRFCheckers)
	fmt.Printf("  No-show timeout:      %d tranches (+%d per wave)\n\n", targets.NoShowTimeout, targets.NoShowTimeoutExtension)

	st := criteria.Stories{RelayVRF: relayStory, Equivocation: equivStory}
	for i, ev := range sc.Events {
		if err := applyEvent(ann, st, keys, ev); err != nil {
			fmt.Printf("  event %2d  %-12s REJECTED: %v\n", i, ev.Op, err)
			continue
		}
		fmt.Printf("  event %2d  %-12s ok  (anv slot %d, tranche %d)\n",
			i, ev.Op, trk.CurrentSlot, trk.CurrentDelayTranche())
	}

	fmt.Printf("\nFinal status at tranche %d:\n", trk.CurrentDelayTranche())
	for _, paraID := range sc.ParaIDsByCore {
		if paraID == 0 {
			continue
		}
		candidate, err := trk.Candidate(paraID)
		if err != nil {
			continue
		}
		status := candidate.AssigneeStatus(tracker.ClassRelayVRF, trk.CurrentDelayTranche())
		fmt.Printf("  para %d: assigned=%d approved=%d debt=%d target=%d -> approved=%v\n",
			paraID, status.Assigned, status.Approved, status.Debt, status.Target,
			candidate.IsApprovedBefore(trk.CurrentDelayTranche()))
	}
	fmt.Printf("\nRelay block approved: %v\n", ann.IsApproved())

	if showMetrics {
		dumpMetrics(reg)
	}
	return nil
}

func applyEvent(ann *announcer.Announcer, st criteria.Stories, keys []*vrf.SecretKey, ev Event) error {
	trk := ann.Tracker
	switch ev.Op {
	case "assign":
		if ev.Validator <= 0 || ev.Validator >= len(keys) {
			return fmt.Errorf("assign: validator %d out of range", ev.Validator)
		}
		crit, err := criterionFor(ev)
		if err != nil {
			return err
		}
		key := keys[ev.Validator]
		assignment, err := criteria.Create(crit, st, &trk.Context, key)
		if err != nil {
			return err
		}
		received := assignment.Tranche
		if now := trk.CurrentDelayTranche(); now > received {
			received = now
		}
		signed, err := criteria.Sign(assignment, &trk.Context, key, uint32(received))
		if err != nil {
			return err
		}
		// Round-trip through the gossip encoding, as a real peer would.
		payload, err := wire.Marshal(signed)
		if err != nil {
			return err
		}
		decoded, err := wire.Unmarshal(payload)
		if err != nil {
			return err
		}
		return ann.VerifyAndInsert(decoded)
	case "approve":
		if ev.Validator <= 0 || ev.Validator >= len(keys) {
			return fmt.Errorf("approve: validator %d out of range", ev.Validator)
		}
		checker := approval.ValidatorID(keys[ev.Validator].Public().Bytes())
		return ann.ApproveOthers(ev.ParaID, checker)
	case "approveMine":
		return ann.ApproveMine(ev.ParaID)
	case "equivocation":
		var candidate approval.CandidateHash
		raw, err := hex.DecodeString(ev.Candidate)
		if err != nil || len(raw) != len(candidate) {
			return fmt.Errorf("equivocation: candidate must be %d hex bytes", len(candidate))
		}
		copy(candidate[:], raw)
		trk.EquivocationStory.AddEquivocation(ev.ParaID, candidate)
		return ann.RequestEquivocation(ev.ParaID)
	case "advance":
		return ann.AdvanceAnvSlot(trk.CurrentSlot + ev.Slots)
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
}

func criterionFor(ev Event) (criteria.Criterion, error) {
	switch ev.Criterion {
	case "modulo":
		return criteria.RelayVRFModulo{}, nil
	case "delay":
		return criteria.RelayVRFDelay{ParaID: ev.ParaID}, nil
	case "equivocation":
		return criteria.RelayEquivocation{ParaID: ev.ParaID}, nil
	default:
		return nil, fmt.Errorf("unknown criterion %q", ev.Criterion)
	}
}

// builtinScenario is the demo script used when no -scenario file is given:
// one occupied core, a handful of remote checkers announcing under
// RelayVRFModulo, approvals trickling in across a few slot advances.
func builtinScenario() Scenario {
	return Scenario{
		RelaySlot:        100,
		Epoch:            1,
		NumDelayTranches: 20,
		NumSamples:       1,
		ParaIDsByCore:    []approval.ParaID{1},
		AllowedParaIDs:   []approval.ParaID{1},
		Validators:       6,
		Seed:             42,
		Events: []Event{
			{Op: "assign", Validator: 1, Criterion: "modulo"},
			{Op: "assign", Validator: 2, Criterion: "modulo"},
			{Op: "assign", Validator: 3, Criterion: "modulo"},
			{Op: "approve", Validator: 1, ParaID: 1},
			{Op: "advance", Slots: 6},
			{Op: "approve", Validator: 2, ParaID: 1},
			{Op: "approve", Validator: 3, ParaID: 1},
			{Op: "approveMine", ParaID: 1},
			{Op: "advance", Slots: 6},
		},
	}
}

func dumpMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Error("Failed to gather metrics", "error", err)
		return
	}
	fmt.Printf("\nMetrics:\n")
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf("{%s=%s}", l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Printf("  %s%s = %.0f\n", family.GetName(), labels, m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Printf("  %s%s = %.0f\n", family.GetName(), labels, m.GetGauge().GetValue())
			}
		}
	}
}
