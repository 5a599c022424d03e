// Package initwfn wraps Gorgonia weight initializers so that they can
// be JSON serialized into configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes the different weight initializers that are available.
type Type string

// Available initializer types
const (
	GlorotU Type = "GlorotU"
	HeU     Type = "HeU"
	Uniform Type = "Uniform"
	Zeroes  Type = "Zeroes"
)

// InitWFn wraps a Gorgonia InitWFn together with the configuration
// that produced it so that the initializer can be marshalled and
// unmarshalled as JSON.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

func newInitWFn(c Config) (*InitWFn, error) {
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(GlorotU): reflect.TypeOf(GlorotUConfig{}),
			string(HeU):     reflect.TypeOf(HeUConfig{}),
			string(Uniform): reflect.TypeOf(UniformConfig{}),
			string(Zeroes):  reflect.TypeOf(ZeroesConfig{}),
		})
	if err != nil {
		return err
	}

	i.Type = typeName
	i.Config = config
	i.initWFn = i.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshal a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: no %v field",
			typeJsonField)
	}
	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unknown initializer "+
			"type %v", typeName)
	}
	value := reflect.New(ty).Interface().(Config)

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}
	if err = json.Unmarshal(valueBytes, &value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config describes a weight initializer and can create the Gorgonia
// InitWFn it describes.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// GlorotUConfig describes a Glorot Uniform initializer.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

func (g GlorotUConfig) Type() Type {
	return GlorotU
}

func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// HeUConfig describes a He Uniform initializer.
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He Uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

func (h HeUConfig) Type() Type {
	return HeU
}

func (h HeUConfig) Create() G.InitWFn {
	return G.HeU(h.Gain)
}

// UniformConfig describes an initializer drawing weights uniformly
// from [Low, High).
type UniformConfig struct {
	Low  float64
	High float64
}

// NewUniform returns a new uniform random weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	if low >= high {
		return nil, fmt.Errorf("newUniform: low must be below high "+
			"\n\thave(%v >= %v)", low, high)
	}
	return newInitWFn(UniformConfig{Low: low, High: high})
}

func (u UniformConfig) Type() Type {
	return Uniform
}

func (u UniformConfig) Create() G.InitWFn {
	return G.Uniform(u.Low, u.High)
}

// ZeroesConfig describes an initializer setting all weights to 0.
type ZeroesConfig struct{}

// NewZeroes returns a new zero weight initializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

func (z ZeroesConfig) Type() Type {
	return Zeroes
}

func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}
