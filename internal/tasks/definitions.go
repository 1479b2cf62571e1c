package tasks

// DefineTasks registers all available tasks on r
func DefineTasks(r *Registry) {
	r.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	r.Register(SendDonationReceiptTask.TaskID(), SendDonationReceiptTask.HandleExecution)
	r.Register(ExpirePendingDonationsTask.TaskID(), ExpirePendingDonationsTask.HandleExecution)
}
