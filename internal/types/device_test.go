package types

import "testing"

func validDeviceConfig() DeviceConfig {
	return DeviceConfig{
		DeviceID:     "scale_1",
		Name:         "Dock Scale 1",
		Manufacturer: "Rice Lake",
		Model:        "920i",
		Protocol:     ProtocolRINCMD,
		Connection: ConnectionSpec{
			Kind: ConnectionTCP,
			TCP:  &TCPConfig{Host: "10.0.0.5", Port: 4001},
		},
		Commands: CommandMap{
			CmdReadGross: "READ_GROSS",
			CmdReadNet:   "READ_NET",
			CmdTare:      "TARE",
			CmdZero:      "ZERO",
		},
		TimeoutMS: 2000,
		Enabled:   true,
	}
}

func TestNormalizeDeviceID(t *testing.T) {
	cases := map[string]string{
		"Scale_1":   "scale_1",
		" scale_2 ": "scale_2",
		"SCALE3":    "scale3",
	}
	for in, want := range cases {
		if got := NormalizeDeviceID(in); got != want {
			t.Errorf("NormalizeDeviceID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeviceConfig_Normalize(t *testing.T) {
	cfg := validDeviceConfig()
	cfg.DeviceID = " Scale_1 "
	cfg.Connection.Kind = ConnectionSerial
	cfg.Connection.TCP = nil
	cfg.Connection.Serial = &SerialConfig{Port: "/dev/ttyUSB0", BaudRate: 9600}

	cfg.Normalize()

	if cfg.DeviceID != "scale_1" {
		t.Errorf("DeviceID = %q, want %q", cfg.DeviceID, "scale_1")
	}
	if cfg.Connection.Serial.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", cfg.Connection.Serial.DataBits)
	}
	if cfg.Connection.Serial.StopBits != StopBitsOne {
		t.Errorf("StopBits = %q, want %q", cfg.Connection.Serial.StopBits, StopBitsOne)
	}
	if cfg.Connection.Serial.Parity != ParityNone {
		t.Errorf("Parity = %q, want %q", cfg.Connection.Serial.Parity, ParityNone)
	}
	if cfg.Connection.Serial.FlowControl != FlowControlNone {
		t.Errorf("FlowControl = %q, want %q", cfg.Connection.Serial.FlowControl, FlowControlNone)
	}
}

func TestDeviceConfig_Validate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		cfg := validDeviceConfig()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty device id rejected", func(t *testing.T) {
		cfg := validDeviceConfig()
		cfg.DeviceID = ""
		assertValidationField(t, cfg.Validate(), "device_id")
	})

	t.Run("device id with uppercase rejected (must normalize first)", func(t *testing.T) {
		cfg := validDeviceConfig()
		cfg.DeviceID = "Scale_1"
		assertValidationField(t, cfg.Validate(), "device_id")
	})

	t.Run("unknown protocol rejected", func(t *testing.T) {
		cfg := validDeviceConfig()
		cfg.Protocol = "BOGUS"
		assertValidationField(t, cfg.Validate(), "protocol")
	})

	t.Run("timeout out of range rejected", func(t *testing.T) {
		cfg := validDeviceConfig()
		cfg.TimeoutMS = 50
		assertValidationField(t, cfg.Validate(), "timeout_ms")

		cfg.TimeoutMS = 40000
		assertValidationField(t, cfg.Validate(), "timeout_ms")
	})

	t.Run("enabled device missing a standard command rejected", func(t *testing.T) {
		cfg := validDeviceConfig()
		delete(cfg.Commands, CmdTare)
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected an error")
		}
		ve, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("expected *ValidationError, got %T", err)
		}
		if ve.Field != "commands.tare" {
			t.Errorf("Field = %q, want %q", ve.Field, "commands.tare")
		}
	})

	t.Run("disabled device may omit standard commands", func(t *testing.T) {
		cfg := validDeviceConfig()
		cfg.Enabled = false
		delete(cfg.Commands, CmdTare)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != field {
		t.Errorf("Field = %q, want %q", ve.Field, field)
	}
}

func TestCommandMap_Lookup(t *testing.T) {
	cm := CommandMap{"ReadGross": "READ_GROSS"}

	if _, ok := cm.Lookup("ReadGross"); !ok {
		t.Error("expected exact-case lookup to succeed")
	}
	if raw, ok := cm.Lookup("readgross"); !ok || raw != "READ_GROSS" {
		t.Errorf("expected case-insensitive lookup to find READ_GROSS, got %q, %v", raw, ok)
	}
	if raw, ok := cm.Lookup("READGROSS"); !ok || raw != "READ_GROSS" {
		t.Errorf("expected case-insensitive lookup to find READ_GROSS, got %q, %v", raw, ok)
	}
	if _, ok := cm.Lookup("tare"); ok {
		t.Error("expected lookup of absent command to fail")
	}
}

func TestDeviceConfig_Clone(t *testing.T) {
	cfg := validDeviceConfig()
	clone := cfg.Clone()

	clone.Commands[CmdTare] = "MODIFIED"
	clone.Connection.TCP.Host = "modified"

	if cfg.Commands[CmdTare] == "MODIFIED" {
		t.Error("Clone shared the Commands map with the original")
	}
	if cfg.Connection.TCP.Host == "modified" {
		t.Error("Clone shared the TCP pointer with the original")
	}
}
