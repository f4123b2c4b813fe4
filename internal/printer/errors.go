package printer

import "errors"

// Session error taxonomy. Connection, claim, and interface-resolution errors
// abort a session; per-frame transmit errors are tallied and never abort the
// loop; a device fault is fatal after the release step runs.
var (
	ErrNoDevices             = errors.New("no devices available")
	ErrNoCompatibleInterface = errors.New("no compatible interface")
	ErrConnectionFailed      = errors.New("connection failed")
	ErrInterfaceClaimFailed  = errors.New("interface claim failed")
	ErrFrameTransmitFailed   = errors.New("frame transmit failed")
	ErrDeviceFault           = errors.New("device fault")
)

// User-facing session messages. The outcome carries exactly one of these (the
// partial and fault variants are formatted with details).
const (
	msgNoDevices     = "No hay dispositivos para imprimir"
	msgNoPermission  = "No hay permiso para usar la impresora"
	msgNoInterface   = "La impresora no tiene una interfaz compatible"
	msgOpenFailed    = "No se pudo abrir la conexión con la impresora"
	msgClaimFailed   = "No se pudo reclamar la interfaz de la impresora"
	msgDone          = "Impresión completada correctamente"
	msgAllFailed     = "La impresión falló: la impresora no aceptó ningún comando"
	msgPartialFormat = "Impresión completada con %d comandos pendientes"
	msgFaultFormat   = "Error de dispositivo durante la impresión: %v"
)
