package models

// AssignmentPatch collects assignment fields to change. Nil fields are left untouched.
type AssignmentPatch struct {
	PointsPossible     *float64
	GradingType        *string
	SubmissionTypes    []string
	AllowedAttempts    *int
	GroupCategoryID    *int64
	ClearGroupCategory bool
	Plagiarism         *PlagiarismSettings
}

// PlagiarismSettings is the similarity-detection wiring applied to upload assignments.
type PlagiarismSettings struct {
	Tool             string
	ToolType         string
	ReportVisibility string
}

// Empty reports whether the patch would change nothing.
func (p AssignmentPatch) Empty() bool {
	return p.PointsPossible == nil &&
		p.GradingType == nil &&
		p.SubmissionTypes == nil &&
		p.AllowedAttempts == nil &&
		p.GroupCategoryID == nil &&
		!p.ClearGroupCategory &&
		p.Plagiarism == nil
}

// ConditionalFields lists patched fields excluding the always-refreshed plagiarism wiring.
func (p AssignmentPatch) ConditionalFields() []string {
	var fields []string
	if p.PointsPossible != nil {
		fields = append(fields, "points_possible")
	}
	if p.GradingType != nil {
		fields = append(fields, "grading_type")
	}
	if p.SubmissionTypes != nil {
		fields = append(fields, "submission_types")
	}
	if p.AllowedAttempts != nil {
		fields = append(fields, "allowed_attempts")
	}
	if p.GroupCategoryID != nil || p.ClearGroupCategory {
		fields = append(fields, "group_category_id")
	}
	return fields
}

// Body renders the patch as the nested JSON object Canvas expects under "assignment".
func (p AssignmentPatch) Body() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.PointsPossible != nil {
		fields["points_possible"] = *p.PointsPossible
	}
	if p.GradingType != nil {
		fields["grading_type"] = *p.GradingType
	}
	if p.SubmissionTypes != nil {
		fields["submission_types"] = p.SubmissionTypes
	}
	if p.AllowedAttempts != nil {
		fields["allowed_attempts"] = *p.AllowedAttempts
	}
	switch {
	case p.GroupCategoryID != nil:
		fields["group_category_id"] = *p.GroupCategoryID
		fields["group_assignment"] = true
	case p.ClearGroupCategory:
		fields["group_category_id"] = nil
	}
	// The tool keys follow the assignment edit form; reads report the result through
	// turnitin_enabled and vericite_enabled instead of echoing them.
	if p.Plagiarism != nil {
		if _, ok := fields["submission_types"]; !ok {
			fields["submission_types"] = []string{SubmissionOnlineUpload}
		}
		fields["submission_type"] = "online"
		fields["similarityDetectionTool"] = p.Plagiarism.Tool
		fields["configuration_tool_type"] = p.Plagiarism.ToolType
		fields["report_visibility"] = p.Plagiarism.ReportVisibility
	}
	return map[string]interface{}{"assignment": fields}
}

// ModulePatch changes the owning assignment group.
type ModulePatch struct {
	Name        *string
	GroupWeight *float64
}

// Empty reports whether the patch would change nothing.
func (p ModulePatch) Empty() bool {
	return p.Name == nil && p.GroupWeight == nil
}

// Body renders the patch as a flat JSON object.
func (p ModulePatch) Body() map[string]interface{} {
	body := map[string]interface{}{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.GroupWeight != nil {
		body["group_weight"] = *p.GroupWeight
	}
	return body
}

// DiscussionPatch changes a graded discussion topic.
type DiscussionPatch struct {
	DiscussionType *string
}

// Empty reports whether the patch would change nothing.
func (p DiscussionPatch) Empty() bool {
	return p.DiscussionType == nil
}

// Body renders the patch as a flat JSON object.
func (p DiscussionPatch) Body() map[string]interface{} {
	body := map[string]interface{}{}
	if p.DiscussionType != nil {
		body["discussion_type"] = *p.DiscussionType
	}
	return body
}
