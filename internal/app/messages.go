package app

// User-facing messages.
const (
	MsgLoadError       = "Error al cargar los datos del apartamento"
	MsgSaveError       = "Error al guardar los cambios"
	MsgSaved           = "¡Cambios guardados con éxito!"
	MsgInvalidPhotoURL = "Por favor, ingresa una URL válida"
	MsgPhotoAdded      = "Foto añadida"
	MsgPhotoRemoved    = "Foto eliminada"
	MsgFormMissing     = "Por favor, completa tu nombre, email y teléfono."
	MsgSubmitError     = "Error al enviar el mensaje. Inténtalo de nuevo."
	MsgSubmitted       = "¡Gracias! Tu mensaje ha sido recibido. Te contactaremos pronto."
	MsgDeleteError     = "Error al eliminar el contacto"
	MsgLeadDeleted     = "Contacto eliminado"
	MsgNothingToExport = "No hay contactos para exportar"
	MsgExported        = "Contactos exportados correctamente"
	MsgAccessGranted   = "¡Acceso concedido!"
	MsgLoggedOut       = "Sesión cerrada"
)
