package scoring

import (
	"fmt"
	"math"
)

// Linear is a fully connected layer; Weight is out x in.
type Linear struct {
	Weight [][]float64
	Bias   []float64
}

func (l *Linear) in() int  { return len(l.Weight[0]) }
func (l *Linear) out() int { return len(l.Weight) }

func (l *Linear) validate(name string) error {
	if len(l.Weight) == 0 || len(l.Weight[0]) == 0 {
		return fmt.Errorf("%w: %s has an empty weight matrix", ErrDimensionMismatch, name)
	}
	in := len(l.Weight[0])
	for i, row := range l.Weight {
		if len(row) != in {
			return fmt.Errorf("%w: %s.weight row %d has %d columns, want %d", ErrDimensionMismatch, name, i, len(row), in)
		}
	}
	if len(l.Bias) != len(l.Weight) {
		return fmt.Errorf("%w: %s.bias has %d entries, want %d", ErrDimensionMismatch, name, len(l.Bias), len(l.Weight))
	}
	return nil
}

// unit computes output o of the layer: <W[o], x> + b[o].
func (l *Linear) unit(o int, x []float64) float64 {
	w := l.Weight[o]
	acc := 0.0
	for i, v := range x {
		acc += w[i] * v
	}
	return acc + l.Bias[o]
}

func (l *Linear) forward(dst, x []float64) {
	for o := range dst {
		dst[o] = l.unit(o, x)
	}
}

// BatchNorm is a batch normalization layer evaluated with running statistics.
type BatchNorm struct {
	Weight      []float64
	Bias        []float64
	RunningMean []float64
	RunningVar  []float64
	Eps         float64
}

func (b *BatchNorm) validate(name string, size int) error {
	for field, v := range map[string][]float64{
		"weight": b.Weight, "bias": b.Bias, "running_mean": b.RunningMean, "running_var": b.RunningVar,
	} {
		if len(v) != size {
			return fmt.Errorf("%w: %s.%s has %d entries, want %d", ErrDimensionMismatch, name, field, len(v), size)
		}
	}
	for i, v := range b.RunningVar {
		if !(v+b.Eps > 0) {
			return fmt.Errorf("%w: %s.running_var[%d] + eps is not positive", ErrDimensionMismatch, name, i)
		}
	}
	return nil
}

// applyReLU normalizes x in place and applies ReLU.
func (b *BatchNorm) applyReLU(x []float64) {
	for i, v := range x {
		y := (v-b.RunningMean[i])/math.Sqrt(b.RunningVar[i]+b.Eps)*b.Weight[i] + b.Bias[i]
		if y < 0 {
			y = 0
		}
		x[i] = y
	}
}

// ValueNetwork is a Q-value MLP in inference mode:
//
//	fc1 -> bn1 -> relu -> fc2 -> bn2 -> relu -> fc3
//
// The output has one value per action (item of the universe).
type ValueNetwork struct {
	fc1 Linear
	bn1 BatchNorm
	fc2 Linear
	bn2 BatchNorm
	fc3 Linear
}

// NewValueNetwork validates the layer chain and creates the network.
func NewValueNetwork(fc1 Linear, bn1 BatchNorm, fc2 Linear, bn2 BatchNorm, fc3 Linear) (*ValueNetwork, error) {
	if err := fc1.validate("fc1"); err != nil {
		return nil, err
	}
	if err := fc2.validate("fc2"); err != nil {
		return nil, err
	}
	if err := fc3.validate("fc3"); err != nil {
		return nil, err
	}
	if fc2.in() != fc1.out() {
		return nil, fmt.Errorf("%w: fc2 expects %d inputs, fc1 produces %d", ErrDimensionMismatch, fc2.in(), fc1.out())
	}
	if fc3.in() != fc2.out() {
		return nil, fmt.Errorf("%w: fc3 expects %d inputs, fc2 produces %d", ErrDimensionMismatch, fc3.in(), fc2.out())
	}
	if err := bn1.validate("bn1", fc1.out()); err != nil {
		return nil, err
	}
	if err := bn2.validate("bn2", fc2.out()); err != nil {
		return nil, err
	}
	return &ValueNetwork{fc1: fc1, bn1: bn1, fc2: fc2, bn2: bn2, fc3: fc3}, nil
}

// InputDim returns the state vector length.
func (n *ValueNetwork) InputDim() int { return n.fc1.in() }

// Actions returns the output vector length.
func (n *ValueNetwork) Actions() int { return n.fc3.out() }

// hidden runs the network up to the last hidden activation.
func (n *ValueNetwork) hidden(state []float64) []float64 {
	h1 := make([]float64, n.fc1.out())
	n.fc1.forward(h1, state)
	n.bn1.applyReLU(h1)
	h2 := make([]float64, n.fc2.out())
	n.fc2.forward(h2, h1)
	n.bn2.applyReLU(h2)
	return h2
}

func (n *ValueNetwork) checkState(state []float64) error {
	if len(state) != n.InputDim() {
		return fmt.Errorf("%w: state has %d features, network expects %d", ErrDimensionMismatch, len(state), n.InputDim())
	}
	return nil
}

// Forward returns the full action-value vector for one state.
func (n *ValueNetwork) Forward(state []float64) ([]float64, error) {
	if err := n.checkState(state); err != nil {
		return nil, err
	}
	h := n.hidden(state)
	out := make([]float64, n.fc3.out())
	n.fc3.forward(out, h)
	for a, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: action %d", ErrNonFinite, a)
		}
	}
	return out, nil
}

// ActionValue returns the value of one action for one state.
// It performs the same arithmetic as Forward(state)[action], computing only that output unit.
func (n *ValueNetwork) ActionValue(state []float64, action int) (float64, error) {
	if err := n.checkState(state); err != nil {
		return 0, err
	}
	if action < 0 || action >= n.fc3.out() {
		return 0, fmt.Errorf("%w: action %d outside [0,%d)", ErrDimensionMismatch, action, n.fc3.out())
	}
	v := n.fc3.unit(action, n.hidden(state))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: action %d", ErrNonFinite, action)
	}
	return v, nil
}
