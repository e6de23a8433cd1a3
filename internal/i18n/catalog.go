// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// message keys, error kinds double as keys for failures
const (
	MsgOK                   = "ok"
	MsgCenterCreated        = "center_created"
	MsgJoinedCenter         = "joined_center"
	MsgRoleChanged          = "role_changed"
	MsgMemberRemoved        = "member_removed"
	MsgLeftCenter           = "left_center"
	MsgNotificationsUpdated = "notifications_updated"
	MsgNotificationWarning  = "notification_warning"
	MsgNotFound             = "not_found"
	MsgNewMemberTitle       = "new_member_title"
	MsgNewMemberMessage     = "new_member_message"
)

var catalog = map[language.Tag]map[string]string{
	language.English: {
		MsgOK:                   "Done.",
		MsgCenterCreated:        "Center %s created.",
		MsgJoinedCenter:         "You joined %s.",
		MsgRoleChanged:          "Role updated.",
		MsgMemberRemoved:        "Member removed.",
		MsgLeftCenter:           "You left the center.",
		MsgNotificationsUpdated: "Notifications updated.",
		MsgNotificationWarning:  "The change was saved but some notifications could not be sent.",
		MsgNotFound:             "Resource not found.",
		MsgNewMemberTitle:       "New member",
		MsgNewMemberMessage:     "%s joined %s.",

		"AuthError":        "You need to sign in again.",
		"InvalidCode":      "That invitation code is not valid.",
		"AlreadyMember":    "You are already a member of this center.",
		"Forbidden":        "Only the center owner can do that.",
		"InvalidTarget":    "The owner's role cannot be changed.",
		"NoOp":             "Nothing to change.",
		"NotAMember":       "That user is not a member of this center.",
		"OwnerCannotLeave": "The owner cannot leave the center.",
		"Contention":       "The center is busy, please try again.",
		"Timeout":          "The operation took too long, please try again.",
		"StoreUnavailable": "The service is temporarily unavailable.",
		"InvalidArgument":  "The request is not valid.",
		"StaleRole":        "The member's role changed in the meantime, refresh and try again.",
		"NotFound":         "Center not found.",
	},
	language.Spanish: {
		MsgOK:                   "Listo.",
		MsgCenterCreated:        "Centro %s creado.",
		MsgJoinedCenter:         "Te uniste a %s.",
		MsgRoleChanged:          "Rol actualizado.",
		MsgMemberRemoved:        "Miembro eliminado.",
		MsgLeftCenter:           "Saliste del centro.",
		MsgNotificationsUpdated: "Notificaciones actualizadas.",
		MsgNotificationWarning:  "El cambio se guardó pero algunas notificaciones no pudieron enviarse.",
		MsgNotFound:             "Recurso no encontrado.",
		MsgNewMemberTitle:       "Nuevo miembro",
		MsgNewMemberMessage:     "%s se ha unido a %s.",

		"AuthError":        "Necesitas iniciar sesión de nuevo.",
		"InvalidCode":      "Ese código de invitación no es válido.",
		"AlreadyMember":    "Ya eres miembro de este centro.",
		"Forbidden":        "Solo el dueño del centro puede hacer eso.",
		"InvalidTarget":    "El rol del dueño no se puede cambiar.",
		"NoOp":             "No hay nada que cambiar.",
		"NotAMember":       "Ese usuario no es miembro de este centro.",
		"OwnerCannotLeave": "El dueño no puede salir del centro.",
		"Contention":       "El centro está ocupado, inténtalo de nuevo.",
		"Timeout":          "La operación tardó demasiado, inténtalo de nuevo.",
		"StoreUnavailable": "El servicio no está disponible temporalmente.",
		"InvalidArgument":  "La solicitud no es válida.",
		"StaleRole":        "El rol del miembro cambió, actualiza e inténtalo de nuevo.",
		"NotFound":         "Centro no encontrado.",
	},
}

func init() {
	for tag, messages := range catalog {
		for key, msg := range messages {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}
