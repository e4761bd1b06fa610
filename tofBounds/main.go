package main

import (
	"flag"
	"fmt"
	"os"

	beamana "github.com/wcte/beamana_go/pkg"
)

var logger beamana.SlogLogger

func init() {
	logger = beamana.NewSlogLogger(os.Stdout, os.Stderr)
}

// tofBounds prints the nominal TOF of each species and the selection windows
// for a beam momentum and flight length.
func main() {
	momentum := flag.Float64("momentum", 0, "Beam momentum in MeV/c, signed by the beam charge")
	length := flag.Float64("length", 0, "Distance between TOF counters in m")
	lowMomentum := flag.Bool("low-momentum", true, "Low momentum set-up")
	run := flag.Int("run", 0, "Take the momentum from the run log")
	flag.Parse()
	beamana.SetLogger(logger)

	p := *momentum
	if *run > 0 {
		cond, err := beamana.RunLog{}.RunConditions(*run)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		p = cond.Momentum
	}
	if p == 0 || !(*length > 0) {
		flag.Usage()
		os.Exit(1)
	}

	kin := beamana.NewKinematicsModel(*length, *lowMomentum)
	fmt.Printf("p = %.1f MeV/c, L = %.3f m, photon TOF %.3f ns\n", p, *length, kin.PhotonTOF())
	for _, s := range beamana.AllSpecies {
		fmt.Printf("%-10s TOF %8.3f ns  kinetic energy %8.2f MeV\n", s, kin.MomentumToTOF(p, s), beamana.KineticEnergy(p, s))
	}
	lo, hi := kin.ProtonTOFSelectionBounds(p)
	fmt.Printf("proton window    [%.3f, %.3f] ns\n", lo, hi)
	if err := kin.CheckProtonTOFWindow(p); err != nil {
		fmt.Printf("warning: %v\n", err)
	}
	if *lowMomentum {
		lo, hi = kin.DeuteriumTOFSelectionBounds(p)
		fmt.Printf("deuterium window (%.3f, %.3f) ns\n", lo, hi)
		fmt.Printf("pion/muon border %.3f ns\n", kin.PiMuBorderTOF(p))
	}
}
