package logic

import (
	"encoding/json"
	"strconv"

	"github.com/cuihairu/faultline/internal/ingest"
	repofaults "github.com/cuihairu/faultline/internal/repo/gorm/faults"
	repoorg "github.com/cuihairu/faultline/internal/repo/gorm/org"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	faultsvc "github.com/cuihairu/faultline/internal/service/faults"
	"github.com/cuihairu/faultline/services/server/internal/types"
)

func toRegion(x *repoorg.Region) *types.Region {
	if x == nil {
		return nil
	}
	return &types.Region{Id: x.ID, Name: x.Name, CreatedAt: x.CreatedAt, UpdatedAt: x.UpdatedAt}
}

func toProject(x *repoorg.Project) *types.Project {
	if x == nil {
		return nil
	}
	return &types.Project{
		Id:        x.ID,
		Name:      x.Name,
		RegionId:  x.RegionID,
		Region:    toRegion(x.Region),
		CreatedAt: x.CreatedAt,
		UpdatedAt: x.UpdatedAt,
	}
}

func toChiefdom(x *repoorg.Chiefdom) *types.Chiefdom {
	if x == nil {
		return nil
	}
	return &types.Chiefdom{
		Id:        x.ID,
		Name:      x.Name,
		ProjectId: x.ProjectID,
		Project:   toProject(x.Project),
		CreatedAt: x.CreatedAt,
		UpdatedAt: x.UpdatedAt,
	}
}

func userTarget(id uint) string { return "user:" + strconv.FormatUint(uint64(id), 10) }

func toUser(u *usersgorm.UserAccount) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{
		Id:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		ChiefdomId: u.ChiefdomID,
		Chiefdom:   toChiefdom(u.Chiefdom),
		Email:      u.Email,
		Phone:      u.Phone,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func toFault(f *repofaults.Fault) types.Fault {
	out := types.Fault{
		Id:               f.ID,
		Title:            f.Title,
		Description:      f.Description,
		Status:           f.Status,
		ReportedById:     f.ReportedByID,
		ReportedBy:       toUser(f.ReportedBy),
		AssignedToId:     f.AssignedToID,
		AssignedTo:       toUser(f.AssignedTo),
		ChiefdomId:       f.ChiefdomID,
		Chiefdom:         toChiefdom(f.Chiefdom),
		FaultDate:        f.FaultDate,
		FaultTime:        f.FaultTime,
		ReporterName:     f.ReporterName,
		LineInfo:         f.LineInfo,
		ClosureFaultInfo: f.ClosureFaultInfo,
		Solution:         f.Solution,
		WorkingPersonnel: f.WorkingPersonnel,
		TcddPersonnel:    f.TCDDPersonnel,
		Images:           make([]types.FaultImage, 0, len(f.Images)),
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
	for _, img := range f.Images {
		out.Images = append(out.Images, types.FaultImage{
			Id:        img.ID,
			FaultId:   img.FaultID,
			Url:       img.URL,
			CreatedAt: img.CreatedAt,
		})
	}
	return out
}

func toFaults(list []*repofaults.Fault) []types.Fault {
	out := make([]types.Fault, 0, len(list))
	for _, f := range list {
		out = append(out, toFault(f))
	}
	return out
}

func toImageResults(results []ingest.Result) []types.ImageResult {
	out := make([]types.ImageResult, 0, len(results))
	for _, r := range results {
		ir := types.ImageResult{Name: r.Name, Url: r.URL}
		if r.Err != nil {
			ir.Error = r.Err.Error()
		}
		out = append(out, ir)
	}
	return out
}

func toMutation(o *faultsvc.Outcome) *types.FaultMutationResponse {
	return &types.FaultMutationResponse{
		Fault:    toFault(o.Fault),
		Images:   toImageResults(o.Images),
		Ingested: o.Ingested,
	}
}

func toActivity(a *repofaults.Activity) types.FaultActivity {
	out := types.FaultActivity{
		Id:        a.ID,
		FaultId:   a.FaultID,
		ActorId:   a.ActorID,
		Action:    a.Action,
		CreatedAt: a.CreatedAt,
	}
	if len(a.Changes) > 0 {
		out.Changes = json.RawMessage(a.Changes)
	}
	return out
}
