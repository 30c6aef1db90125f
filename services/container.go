package services

import "github.com/Ca23187/easypan/repositories"

type Container struct {
	Upload   UploadService
	Transfer TransferService
}

func NewContainer(repos repositories.Container) *Container {
	return &Container{
		Upload:   NewUploadService(repos.TxManager, repos.Users, repos.Files, repos.TransferJobs, repos.Sessions),
		Transfer: NewTransferService(repos.Files, repos.TransferJobs, repos.Sessions, nil),
	}
}
