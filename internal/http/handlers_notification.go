package http

import "net/http"

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	notifications, err := s.notifications.ListByUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]notificationDTO, len(notifications))
	for i, n := range notifications {
		out[i] = toNotificationDTO(n)
	}
	respondJSON(w, http.StatusOK, out)
}

type unreadCountResponse struct {
	Unread int64 `json:"unread"`
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	count, err := s.notifications.CountUnread(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, unreadCountResponse{Unread: count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.notifications.MarkRead(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.notifications.MarkAllRead(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemindDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.notifications.RemindDebt(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
