// Package report renders solver results as text tables and gonum/plot charts.
package report

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/notargets/PowerFlow/fault"
	"github.com/notargets/PowerFlow/powerflow"
)

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// BusTable lists the solved bus voltages with angles in degrees
func BusTable(res *powerflow.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Power flow %s after %d iterations (max mismatch %.3e pu)\n",
		res.Status, res.Iterations, res.MaxMismatch)
	fmt.Fprintf(&sb, "%-8s %-6s %10s %12s\n", "Bus", "Type", "V (pu)", "Angle (deg)")
	for _, b := range res.Buses {
		fmt.Fprintf(&sb, "%-8s %-6s %10.5f %12.4f\n", b.Name, b.Type, b.V, degrees(b.Delta))
	}
	return sb.String()
}

// PowerTable lists net injections and the generation they imply
func PowerTable(powers []powerflow.BusPower) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-8s %-6s %10s %10s %10s %10s\n", "Bus", "Type", "P (MW)", "Q (MVAr)", "PGen", "QGen")
	for _, p := range powers {
		fmt.Fprintf(&sb, "%-8s %-6s %10.3f %10.3f %10.3f %10.3f\n", p.Name, p.Type, p.P, p.Q, p.PGen, p.QGen)
	}
	return sb.String()
}

// FlowTable lists branch flows and losses in MW / MVAr
func FlowTable(flows []powerflow.Flow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s %-6s %-6s %10s %10s %10s %10s\n", "Branch", "From", "To", "P (MW)", "Q (MVAr)", "Ploss", "Qloss")
	for _, f := range flows {
		loss := f.Loss()
		fmt.Fprintf(&sb, "%-6s %-6s %-6s %10.3f %10.3f %10.4f %10.4f\n",
			f.Name, f.From, f.To, real(f.Sij), imag(f.Sij), real(loss), imag(loss))
	}
	total := powerflow.TotalLoss(flows)
	fmt.Fprintf(&sb, "Total losses: %.4f MW, %.4f MVAr\n", real(total), imag(total))
	return sb.String()
}

// FaultTable summarizes one fault: currents at the fault and phase voltage
// magnitudes at every bus
func FaultTable(r *fault.Result) string {
	var sb strings.Builder
	ka := r.PhaseKA()
	fmt.Fprintf(&sb, "%s fault at %s, Zf = %.4f%+.4fj pu\n", r.Type, r.Bus, real(r.Impedance), imag(r.Impedance))
	fmt.Fprintf(&sb, "  I0 %s  I1 %s  I2 %s\n", polar(r.Sequence[0]), polar(r.Sequence[1]), polar(r.Sequence[2]))
	fmt.Fprintf(&sb, "  Ia %s  Ib %s  Ic %s\n", polar(r.Phase[0]), polar(r.Phase[1]), polar(r.Phase[2]))
	fmt.Fprintf(&sb, "  |Ia| %.4f kA  |Ib| %.4f kA  |Ic| %.4f kA\n", ka[0], ka[1], ka[2])
	fmt.Fprintf(&sb, "  %-8s %8s %8s %8s\n", "Bus", "|Va|", "|Vb|", "|Vc|")
	for _, v := range r.Voltages {
		fmt.Fprintf(&sb, "  %-8s %8.4f %8.4f %8.4f\n",
			v.Name, cmplx.Abs(v.Phase[0]), cmplx.Abs(v.Phase[1]), cmplx.Abs(v.Phase[2]))
	}
	return sb.String()
}

func polar(z complex128) string {
	r, th := cmplx.Polar(z)
	return fmt.Sprintf("%.4f∠%.2f°", r, degrees(th))
}
