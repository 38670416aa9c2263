package claim

// User-facing messages, one per failure kind. Only the latest is shown.
const (
	MsgRequiredFields = "❌ Nombre, Teléfono y Foto son campos obligatorios."
	MsgNameTooLong    = "❌ Nombre no debe exceder los 45 caracteres."
	MsgPhoneFormat    = "❌ Teléfono debe tener exactamente 9 dígitos."
	MsgDNIFormat      = "❌ Formato de DNI invalido"
	MsgMissingStore   = "❌ Error crítico: ID de tienda no definido."

	MsgUploadFailed = "❌ Fallo crítico al subir la foto."
	MsgTimeout      = "⚠️ La conexión está muy lenta. Revisa tu internet."
	MsgOffline      = "❌ Sin conexión a internet. Verifica tus datos."
	MsgServerError  = "❌ Problemas técnicos en el servidor o tienda sin premios. Intente en unos minutos."
	// MsgMalformed takes the HTTP status of the unparseable response.
	MsgMalformed       = "❌ Error del servidor (%d). Intente más tarde."
	MsgRejectedDefault = "No se pudo registrar el premio."
)
