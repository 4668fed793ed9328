package projects

// Summary is one project card's worth of data as returned by the backend.
type Summary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"img"`
	Tags        []string `json:"techstacks"`
}

// ProfileProjects is the normalized result of one fetch. Neither slice is
// ever nil.
type ProfileProjects struct {
	Owned        []Summary `json:"projects"`
	Collaborated []Summary `json:"collaboratedProjects"`
}

// Empty returns a ProfileProjects with both collections empty.
func Empty() ProfileProjects {
	return ProfileProjects{Owned: []Summary{}, Collaborated: []Summary{}}
}

// wireProject mirrors a project in the backend response. The backend uses
// Mongo-style "_id"; "id" is accepted as well.
type wireProject struct {
	MongoID     string   `json:"_id"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"img"`
	Tags        []string `json:"techstacks"`
}

// wireResponse mirrors GET /api/project/user-projects/{id}.
type wireResponse struct {
	Projects             []wireProject `json:"projects"`
	CollaboratedProjects []wireProject `json:"collaboratedProjects"`
}

// errorBody mirrors the backend's error payload.
type errorBody struct {
	Message string `json:"message"`
}

func normalize(w wireResponse) ProfileProjects {
	return ProfileProjects{
		Owned:        normalizeList(w.Projects),
		Collaborated: normalizeList(w.CollaboratedProjects),
	}
}

func normalizeList(in []wireProject) []Summary {
	out := make([]Summary, 0, len(in))
	for _, p := range in {
		id := p.MongoID
		if id == "" {
			id = p.ID
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, Summary{
			ID:          id,
			Title:       p.Title,
			Description: p.Description,
			Image:       p.Image,
			Tags:        tags,
		})
	}
	return out
}
