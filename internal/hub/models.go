package hub

// Well-known capability identifiers.
const (
	CapOnOff       = "onoff"
	CapDim         = "dim"               // brightness, 0..1
	CapTemperature = "light_temperature" // colour temperature, 0..1
)

// ClassLight is the device class of a controllable light.
const ClassLight = "light"

// Capability is one named, typed value on a device.
type Capability struct {
	ID      string `json:"id"`
	Value   any    `json:"value"`
	Getable bool   `json:"getable"`
	Setable bool   `json:"setable"`
	Units   string `json:"units,omitempty"`
}

// Device is a hub device. Devices are owned entirely by the hub; duskd
// only reads identity and capability values and writes capability values.
type Device struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Class        string                `json:"class"`
	Zone         string                `json:"zone,omitempty"`
	Available    bool                  `json:"available"`
	Capabilities map[string]Capability `json:"capabilities"`
}

// IsLight returns true for devices of the light class.
func (d *Device) IsLight() bool {
	return d.Class == ClassLight
}

// HasCapability returns true if the device exposes the capability.
func (d *Device) HasCapability(id string) bool {
	_, ok := d.Capabilities[id]
	return ok
}

// CapabilityFloat reads a capability value as a float64.
// Returns false if the capability is absent or not numeric.
func (d *Device) CapabilityFloat(id string) (float64, bool) {
	c, ok := d.Capabilities[id]
	if !ok {
		return 0, false
	}

	switch v := c.Value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
