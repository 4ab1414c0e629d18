package app

import (
	"inkwell/api/internal/store"
)

// Payload builders shape store records for the wire. Times marshal as
// RFC 3339 via encoding/json.

func userPayload(u store.User) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"emailVerified": u.EmailVerified,
		"image":         u.Image,
		"createdAt":     u.CreatedAt,
	}
}

func sessionPayload(session Session, user store.User) map[string]any {
	payload := map[string]any{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      userPayload(user),
	}
	if session.RefreshToken != "" {
		payload["refreshToken"] = session.RefreshToken
	}
	return payload
}

func folderPayload(f store.Folder) map[string]any {
	return map[string]any{
		"id":          f.ID,
		"name":        f.Name,
		"description": f.Description,
		"color":       f.Color,
		"order":       f.SortOrder,
		"pinned":      f.Pinned,
		"createdAt":   f.CreatedAt,
		"updatedAt":   f.UpdatedAt,
	}
}

func folderListPayload(folders []store.Folder) []map[string]any {
	out := make([]map[string]any, 0, len(folders))
	for _, f := range folders {
		out = append(out, folderPayload(f))
	}
	return out
}

func notePayload(n store.Note) map[string]any {
	return map[string]any{
		"id":          n.ID,
		"folderId":    n.FolderID,
		"title":       n.Title,
		"description": n.Description,
		"content":     n.Content,
		"pinned":      n.Pinned,
		"favorited":   n.Favorited,
		"createdAt":   n.CreatedAt,
		"updatedAt":   n.UpdatedAt,
	}
}

func noteListPayload(notes []store.Note) []map[string]any {
	out := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		out = append(out, notePayload(n))
	}
	return out
}

func boardPayload(b store.Board) map[string]any {
	return map[string]any{
		"id":          b.ID,
		"name":        b.Name,
		"description": b.Description,
		"pinned":      b.Pinned,
		"favorited":   b.Favorited,
		"createdAt":   b.CreatedAt,
		"updatedAt":   b.UpdatedAt,
	}
}

func boardListPayload(boards []store.Board) []map[string]any {
	out := make([]map[string]any, 0, len(boards))
	for _, b := range boards {
		out = append(out, boardPayload(b))
	}
	return out
}

func columnPayload(c store.KanbanColumn) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"boardId":   c.BoardID,
		"name":      c.Name,
		"color":     c.Color,
		"order":     c.SortOrder,
		"createdAt": c.CreatedAt,
	}
}

func columnListPayload(columns []store.KanbanColumn) []map[string]any {
	out := make([]map[string]any, 0, len(columns))
	for _, c := range columns {
		out = append(out, columnPayload(c))
	}
	return out
}

func cardPayload(c store.KanbanCard) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"columnId":    c.ColumnID,
		"name":        c.Name,
		"description": c.Description,
		"dueDate":     c.DueDate,
		"order":       c.SortOrder,
		"createdAt":   c.CreatedAt,
		"updatedAt":   c.UpdatedAt,
	}
}

func cardListPayload(cards []store.KanbanCard) []map[string]any {
	out := make([]map[string]any, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardPayload(c))
	}
	return out
}

func eventPayload(e store.CalendarEvent) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"title":       e.Title,
		"description": e.Description,
		"startAt":     e.StartAt,
		"endAt":       e.EndAt,
		"color":       e.Color,
		"noteId":      e.NoteID,
		"createdAt":   e.CreatedAt,
		"updatedAt":   e.UpdatedAt,
	}
}

func calendarPayload(data CalendarData) map[string]any {
	calEvents := make([]map[string]any, 0, len(data.Events))
	for _, e := range data.Events {
		calEvents = append(calEvents, eventPayload(e))
	}
	cards := make([]map[string]any, 0, len(data.Cards))
	for _, c := range data.Cards {
		payload := cardPayload(c.KanbanCard)
		payload["boardId"] = c.BoardID
		payload["boardName"] = c.BoardName
		cards = append(cards, payload)
	}
	notes := make([]map[string]any, 0, len(data.Notes))
	for _, n := range data.Notes {
		notes = append(notes, map[string]any{
			"id":        n.ID,
			"title":     n.Title,
			"folderId":  n.FolderID,
			"createdAt": n.CreatedAt,
		})
	}
	return map[string]any{
		"from":   data.From,
		"to":     data.To,
		"events": calEvents,
		"cards":  cards,
		"notes":  notes,
	}
}

// favoritesPayload merges notes and boards into one type-tagged list.
func favoritesPayload(fav Favorites) map[string]any {
	items := make([]map[string]any, 0, len(fav.Notes)+len(fav.Boards))
	for _, n := range fav.Notes {
		payload := notePayload(n)
		payload["type"] = "note"
		items = append(items, payload)
	}
	for _, b := range fav.Boards {
		payload := boardPayload(b)
		payload["type"] = "board"
		items = append(items, payload)
	}
	return map[string]any{"items": items}
}
