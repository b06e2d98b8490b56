package params

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNumSizeBins  = 100
	DefaultMinW         = 0.001
	DefaultMinWResource = 1e-10
	DefaultN            = 2.0 / 3.0
	DefaultP            = 0.7
	DefaultQ            = 0.8
	DefaultKappa        = 0.005
	DefaultRResource    = 10.0
	DefaultWPPCutoff    = 10.0
	DefaultF0           = 0.6
	DefaultAlpha        = 0.6
	DefaultZ0Pre        = 0.6
	DefaultSexRatio     = 0.5
	DefaultErepro       = 1.0
	DefaultH            = 30.0
	DefaultBeta         = 100.0
	DefaultSigma        = 1.3
)

// SpeciesParams holds the traits of one species. Zero-valued optional
// fields are filled with defaults derived from the model-level settings.
type SpeciesParams struct {
	Name string  `yaml:"name"`
	WInf float64 `yaml:"w_inf"`
	WMat float64 `yaml:"w_mat"`
	WMin float64 `yaml:"w_min"`

	// Feeding kernel: preferred predator/prey mass ratio and width.
	Beta  float64 `yaml:"beta"`
	Sigma float64 `yaml:"sigma"`

	H     float64 `yaml:"h"`     // max intake coefficient, intakeMax = h*w^n
	Gamma float64 `yaml:"gamma"` // search volume coefficient; 0 derives it from h and f0
	Ks    float64 `yaml:"ks"`    // standard metabolism coefficient; 0 means 0.2*h
	Z0    float64 `yaml:"z0"`    // background mortality; 0 means z0pre*wInf^(n-1)

	Erepro float64 `yaml:"erepro"` // reproduction efficiency; 0 means 1
	RMax   float64 `yaml:"r_max"`  // Beverton-Holt recruitment cap; 0 disables density dependence

	Gear         string  `yaml:"gear"`         // fishing gear name; "" means the species name
	Catchability float64 `yaml:"catchability"` // 0 means 1
	WSel         float64 `yaml:"w_sel"`        // knife-edge selectivity threshold; 0 means wMat
}

// ModelParams holds community-level settings shared by all species.
type ModelParams struct {
	NumSizeBins  int     `yaml:"num_size_bins"`
	MinWResource float64 `yaml:"min_w_resource"`

	// Allometric exponents: intake n, metabolism p, search volume q.
	N float64 `yaml:"n"`
	P float64 `yaml:"p"`
	Q float64 `yaml:"q"`

	// Resource spectrum: carrying capacity kappa*w^-lambda up to the
	// cutoff, regeneration rate rResource*w^(n-1).
	Lambda    float64 `yaml:"lambda"`
	Kappa     float64 `yaml:"kappa"`
	RResource float64 `yaml:"r_resource"`
	WPPCutoff float64 `yaml:"w_pp_cutoff"`

	F0    float64 `yaml:"f0"`     // expected feeding level used to derive gamma
	Alpha float64 `yaml:"alpha"`  // assimilation efficiency
	Z0Pre float64 `yaml:"z0_pre"` // background mortality prefactor
}

// DefaultModel returns the standard community settings.
func DefaultModel() ModelParams {
	m := ModelParams{
		NumSizeBins:  DefaultNumSizeBins,
		MinWResource: DefaultMinWResource,
		N:            DefaultN,
		P:            DefaultP,
		Q:            DefaultQ,
		Kappa:        DefaultKappa,
		RResource:    DefaultRResource,
		WPPCutoff:    DefaultWPPCutoff,
		F0:           DefaultF0,
		Alpha:        DefaultAlpha,
		Z0Pre:        DefaultZ0Pre,
	}
	m.Lambda = 2 + m.Q - m.N
	return m
}

type yamlFile struct {
	Model   ModelParams     `yaml:"model"`
	Species []SpeciesParams `yaml:"species"`
}

// LoadFile reads a model + species table from a YAML file and builds the
// full parameter set.
func LoadFile(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := yamlFile{Model: DefaultModel()}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return New(f.Model, f.Species)
}

// SaveFile writes the model settings and species table back to YAML.
func SaveFile(path string, p *Params) error {
	data, err := yaml.Marshal(yamlFile{Model: p.Model, Species: p.Species})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *SpeciesParams) applyDefaults(m ModelParams) {
	if s.WMin == 0 {
		s.WMin = DefaultMinW
	}
	if s.WMat == 0 {
		s.WMat = s.WInf * 0.25
	}
	if s.Beta == 0 {
		s.Beta = DefaultBeta
	}
	if s.Sigma == 0 {
		s.Sigma = DefaultSigma
	}
	if s.H == 0 {
		s.H = DefaultH
	}
	if s.Ks == 0 {
		s.Ks = 0.2 * s.H
	}
	if s.Z0 == 0 {
		s.Z0 = m.Z0Pre * math.Pow(s.WInf, m.N-1)
	}
	if s.Erepro == 0 {
		s.Erepro = DefaultErepro
	}
	if s.Gear == "" {
		s.Gear = s.Name
	}
	if s.Catchability == 0 {
		s.Catchability = 1
	}
	if s.WSel == 0 {
		s.WSel = s.WMat
	}
}
