package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name SourceAdapter --dir ../usecase --output usecase --outpkg usecasemock --filename source_adapter_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name TeamInfoFetcher --dir ../usecase --output usecase --outpkg usecasemock --filename team_info_fetcher_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StandingsFetcher --dir ../usecase --output usecase --outpkg usecasemock --filename standings_fetcher_mock.go
