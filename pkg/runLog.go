package beamana

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// runLog holds the beam settings of the 2023 runs as recorded in the shift log.
var runLog = map[int]RunConditions{
	255: {Momentum: 800, RefractiveIndex: 1.015},
	256: {Momentum: 860, RefractiveIndex: 1.015},
	257: {Momentum: 740, RefractiveIndex: 1.015},
	258: {Momentum: 690, RefractiveIndex: 1.015},
	259: {Momentum: 890, RefractiveIndex: 1.015},
	260: {Momentum: 940, RefractiveIndex: 1.015},
	261: {Momentum: 830, RefractiveIndex: 1.015},
	262: {Momentum: 660, RefractiveIndex: 1.015},
	263: {Momentum: -1000, RefractiveIndex: 1.015},
	264: {Momentum: 1000, RefractiveIndex: 1.015},
	265: {Momentum: -940, RefractiveIndex: 1.015},
	266: {Momentum: -890, RefractiveIndex: 1.015},
	267: {Momentum: -860, RefractiveIndex: 1.015},
	268: {Momentum: -800, RefractiveIndex: 1.015},
	269: {Momentum: -740, RefractiveIndex: 1.015},
	270: {Momentum: -740, RefractiveIndex: 1.015},
	271: {Momentum: -690, RefractiveIndex: 1.015},
	272: {Momentum: -600, RefractiveIndex: 1.015},
	273: {Momentum: -830, RefractiveIndex: 1.015},
	274: {Momentum: -660, RefractiveIndex: 1.015},
	276: {Momentum: 600, RefractiveIndex: 1.047},
	277: {Momentum: 540, RefractiveIndex: 1.047},
	278: {Momentum: 500, RefractiveIndex: 1.047},
	279: {Momentum: 460, RefractiveIndex: 1.047},
	280: {Momentum: 410, RefractiveIndex: 1.047},
	281: {Momentum: 380, RefractiveIndex: 1.047},
	282: {Momentum: 340, RefractiveIndex: 1.047},
	283: {Momentum: 300, RefractiveIndex: 1.047},
	284: {Momentum: -600, RefractiveIndex: 1.047},
	285: {Momentum: -540, RefractiveIndex: 1.047},
	286: {Momentum: -500, RefractiveIndex: 1.047},
	287: {Momentum: -460, RefractiveIndex: 1.047},
	288: {Momentum: -410, RefractiveIndex: 1.047},
	289: {Momentum: -380, RefractiveIndex: 1.047},
	290: {Momentum: -340, RefractiveIndex: 1.047},
	291: {Momentum: -300, RefractiveIndex: 1.047},
	292: {Momentum: 250, RefractiveIndex: 1.047},
	293: {Momentum: 460, RefractiveIndex: 1.047},
	294: {Momentum: 460, RefractiveIndex: 1.047},
	295: {Momentum: 500, RefractiveIndex: 1.047},
	296: {Momentum: 410, RefractiveIndex: 1.047},
	297: {Momentum: 380, RefractiveIndex: 1.047},
	300: {Momentum: 380, RefractiveIndex: 1.047},
	301: {Momentum: 340, RefractiveIndex: 1.047},
	302: {Momentum: 540, RefractiveIndex: 1.047},
	303: {Momentum: -540, RefractiveIndex: 1.047},
	304: {Momentum: -500, RefractiveIndex: 1.047},
	305: {Momentum: -460, RefractiveIndex: 1.047},
	306: {Momentum: -410, RefractiveIndex: 1.047},
	307: {Momentum: -380, RefractiveIndex: 1.047},
	308: {Momentum: -340, RefractiveIndex: 1.047},
	309: {Momentum: -300, RefractiveIndex: 1.06},
	310: {Momentum: -340, RefractiveIndex: 1.06},
	311: {Momentum: -380, RefractiveIndex: 1.06},
	312: {Momentum: -400, RefractiveIndex: 1.06},
	313: {Momentum: -410, RefractiveIndex: 1.06},
	314: {Momentum: -460, RefractiveIndex: 1.06},
	315: {Momentum: -500, RefractiveIndex: 1.06},
	316: {Momentum: 500, RefractiveIndex: 1.06},
	317: {Momentum: 460, RefractiveIndex: 1.06},
	318: {Momentum: 410, RefractiveIndex: 1.06},
	319: {Momentum: 400, RefractiveIndex: 1.06},
	320: {Momentum: 380, RefractiveIndex: 1.06},
	321: {Momentum: 340, RefractiveIndex: 1.06},
	322: {Momentum: 300, RefractiveIndex: 1.06},
	326: {Momentum: 250, RefractiveIndex: 1.11},
	327: {Momentum: 250, RefractiveIndex: 1.11},
	328: {Momentum: 230, RefractiveIndex: 1.11},
	329: {Momentum: 230, RefractiveIndex: 1.11},
	330: {Momentum: 220, RefractiveIndex: 1.11},
	331: {Momentum: 280, RefractiveIndex: 1.11},
	332: {Momentum: 300, RefractiveIndex: 1.11},
	333: {Momentum: 340, RefractiveIndex: 1.11},
	334: {Momentum: 380, RefractiveIndex: 1.11},
	335: {Momentum: -380, RefractiveIndex: 1.11},
	336: {Momentum: -340, RefractiveIndex: 1.11},
	337: {Momentum: 340, RefractiveIndex: 1.11},
	338: {Momentum: 1000, RefractiveIndex: 1.11},
	339: {Momentum: 380, RefractiveIndex: 1.11},
	340: {Momentum: 340, RefractiveIndex: 1.11},
	341: {Momentum: 300, RefractiveIndex: 1.11},
	342: {Momentum: 280, RefractiveIndex: 1.11},
	343: {Momentum: 250, RefractiveIndex: 1.11},
	344: {Momentum: 230, RefractiveIndex: 1.11},
	345: {Momentum: 220, RefractiveIndex: 1.11},
	346: {Momentum: -220, RefractiveIndex: 1.11},
	347: {Momentum: -230, RefractiveIndex: 1.11},
	348: {Momentum: -230, RefractiveIndex: 1.11},
	349: {Momentum: -230, RefractiveIndex: 1.11},
	350: {Momentum: -230, RefractiveIndex: 1.11},
	351: {Momentum: -250, RefractiveIndex: 1.11},
	352: {Momentum: -280, RefractiveIndex: 1.11},
	353: {Momentum: -300, RefractiveIndex: 1.11},
}

// RunLog serves run conditions from the built-in shift log, for use
// without a database connection.
type RunLog struct{}

func (RunLog) RunConditions(runNumber int) (RunConditions, error) {
	cond, ok := runLog[runNumber]
	if !ok {
		return RunConditions{}, fmt.Errorf("run %d not in the run log", runNumber)
	}
	if configuration.Verbosity > 1 {
		logger.Info(fmt.Sprintf("Run %d: %.0f MeV/c, n = %.3f from run log", runNumber, cond.Momentum, cond.RefractiveIndex), "runLog")
	}
	return cond, nil
}

// RunsAtMomentum lists the logged runs taken at momentum p, in increasing order.
func (RunLog) RunsAtMomentum(p float64) []int {
	runs := make([]int, 0)
	for _, run := range maps.Keys(runLog) {
		if runLog[run].Momentum == p {
			runs = append(runs, run)
		}
	}
	slices.Sort(runs)
	return runs
}
