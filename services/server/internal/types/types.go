package types

import (
	"encoding/json"
	"time"
)

type (
	ErrorResponse struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	IdPath struct {
		Id uint `path:"id"`
	}

	HealthResponse struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
)

type (
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		User      User      `json:"user"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
)

type (
	Region struct {
		Id        uint      `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Project struct {
		Id        uint      `json:"id"`
		Name      string    `json:"name"`
		RegionId  *uint     `json:"regionId"`
		Region    *Region   `json:"region,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Chiefdom struct {
		Id        uint      `json:"id"`
		Name      string    `json:"name"`
		ProjectId *uint     `json:"projectId"`
		Project   *Project  `json:"project,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	RegionRequest struct {
		Id   uint   `path:"id,optional"`
		Name string `json:"name"`
	}

	ProjectRequest struct {
		Id       uint   `path:"id,optional"`
		Name     string `json:"name"`
		RegionId *uint  `json:"regionId,optional"`
	}

	ChiefdomRequest struct {
		Id        uint   `path:"id,optional"`
		Name      string `json:"name"`
		ProjectId *uint  `json:"projectId,optional"`
	}

	ProjectListRequest struct {
		RegionId uint `form:"regionId,optional"`
	}

	ChiefdomListRequest struct {
		ProjectId uint `form:"projectId,optional"`
	}
)

type (
	// User never carries the password hash.
	User struct {
		Id         uint      `json:"id"`
		Username   string    `json:"username"`
		Name       string    `json:"name"`
		Role       string    `json:"role"`
		ChiefdomId *uint     `json:"chiefdomId"`
		Chiefdom   *Chiefdom `json:"chiefdom,omitempty"`
		Email      string    `json:"email"`
		Phone      string    `json:"phone"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	UserCreateRequest struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		Name       string `json:"name,optional"`
		Role       string `json:"role"`
		ChiefdomId *uint  `json:"chiefdomId,optional"`
		Email      string `json:"email,optional"`
		Phone      string `json:"phone,optional"`
	}

	UserUpdateRequest struct {
		Id            uint    `path:"id"`
		Username      *string `json:"username,optional"`
		Name          *string `json:"name,optional"`
		Role          *string `json:"role,optional"`
		ChiefdomId    *uint   `json:"chiefdomId,optional"`
		ClearChiefdom bool    `json:"clearChiefdom,optional"`
		Email         *string `json:"email,optional"`
		Phone         *string `json:"phone,optional"`
	}

	UserListRequest struct {
		Role       string `form:"role,optional"`
		ChiefdomId uint   `form:"chiefdomId,optional"`
	}

	PasswordChangeRequest struct {
		Id              uint   `path:"id"`
		CurrentPassword string `json:"currentPassword,optional"`
		NewPassword     string `json:"newPassword"`
	}
)

type (
	FaultImage struct {
		Id        uint      `json:"id"`
		FaultId   uint      `json:"faultId"`
		Url       string    `json:"url"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Fault struct {
		Id               uint         `json:"id"`
		Title            string       `json:"title"`
		Description      string       `json:"description"`
		Status           string       `json:"status"`
		ReportedById     uint         `json:"reportedById"`
		ReportedBy       *User        `json:"reportedBy,omitempty"`
		AssignedToId     *uint        `json:"assignedToId"`
		AssignedTo       *User        `json:"assignedTo,omitempty"`
		ChiefdomId       uint         `json:"chiefdomId"`
		Chiefdom         *Chiefdom    `json:"chiefdom,omitempty"`
		FaultDate        string       `json:"faultDate,omitempty"`
		FaultTime        string       `json:"faultTime,omitempty"`
		ReporterName     string       `json:"reporterName,omitempty"`
		LineInfo         string       `json:"lineInfo,omitempty"`
		ClosureFaultInfo string       `json:"closureFaultInfo,omitempty"`
		Solution         string       `json:"solution,omitempty"`
		WorkingPersonnel string       `json:"workingPersonnel,omitempty"`
		TcddPersonnel    string       `json:"tcddPersonnel,omitempty"`
		Images           []FaultImage `json:"images"`
		CreatedAt        time.Time    `json:"createdAt"`
		UpdatedAt        time.Time    `json:"updatedAt"`
	}

	FaultListRequest struct {
		View         string `form:"view,optional"`
		ChiefdomId   uint   `form:"chiefdomId,optional"`
		ReportedById uint   `form:"reportedById,optional"`
		Status       string `form:"status,optional"`
	}

	ImageResult struct {
		Name  string `json:"name"`
		Url   string `json:"url,omitempty"`
		Error string `json:"error,omitempty"`
	}

	// FaultMutationResponse is returned by create and update.
	FaultMutationResponse struct {
		Fault    Fault         `json:"fault"`
		Images   []ImageResult `json:"images"`
		Ingested int           `json:"ingested"`
	}

	FaultActivity struct {
		Id        uint            `json:"id"`
		FaultId   uint            `json:"faultId"`
		ActorId   uint            `json:"actorId"`
		Action    string          `json:"action"`
		Changes   json.RawMessage `json:"changes,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	ImagePath struct {
		ImageId uint `path:"imageId"`
	}

	UploadPath struct {
		Filename string `path:"filename"`
	}
)
