package agent

import (
	"sync"

	"github.com/tickd/tickd/analytics"
	"github.com/tickd/tickd/assign"
	"github.com/tickd/tickd/bus"
	"github.com/tickd/tickd/config"
	"github.com/tickd/tickd/engine"
	"github.com/tickd/tickd/executor"
	"github.com/tickd/tickd/notify"
	"github.com/tickd/tickd/oracle"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/persistence/inmem"
	rd "github.com/tickd/tickd/persistence/redis"
	"github.com/tickd/tickd/rest"
	"github.com/tickd/tickd/workflow"
)

type Agent struct {
	Config config.Config

	runDao     persistence.RunDao
	ticketDao  persistence.TicketDao
	userDao    persistence.UserDao
	queue      persistence.Queue
	delayQueue persistence.DelayQueue

	eventBus   *bus.EventBus
	engine     *engine.Engine
	executors  []executor.Executor
	httpServer *rest.Server

	shutdown     bool
	shutdownLock sync.Mutex
	wg           sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupEngine,
		a.setupExecutors,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_INMEM:
		a.runDao = inmem.NewRunDao()
		a.ticketDao = inmem.NewTicketDao()
		a.userDao = inmem.NewUserDao()
		a.queue = inmem.NewQueue()
		a.delayQueue = inmem.NewDelayQueue()
	default:
		rdConf := rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		}
		a.runDao = rd.NewRedisRunDao(rdConf)
		a.ticketDao = rd.NewRedisTicketDao(rdConf)
		a.userDao = rd.NewRedisUserDao(rdConf)
		a.queue = rd.NewRedisQueue(rdConf)
		a.delayQueue = rd.NewRedisDelayQueue(rdConf)
	}
	a.eventBus = bus.NewEventBus(a.queue)
	return nil
}

func (a *Agent) setupEngine() error {
	a.engine = engine.NewEngine(a.runDao, a.delayQueue, a.Config.EngineConfig, &a.wg)
	if a.Config.AuditLogFile != "" {
		audit, err := analytics.NewRunAuditLog(a.Config.AuditLogFile)
		if err != nil {
			return err
		}
		a.engine.SetAuditLog(audit)
	}

	oracleClient := oracle.NewClient(a.Config.OracleConfig)
	resolver := assign.NewResolver(a.userDao)
	mailer := notify.NewSendGridMailer(a.Config.MailerConfig)
	sms := notify.NewTwilioSms(a.Config.SmsConfig)

	a.engine.Register(workflow.NewTicketCreated(a.ticketDao, oracleClient, resolver, mailer))
	a.engine.Register(workflow.NewUserSignup(a.userDao, mailer, sms, a.Config.FollowupDelay))
	return nil
}

func (a *Agent) setupExecutors() error {
	engineConf := a.Config.EngineConfig
	a.executors = []executor.Executor{
		executor.NewEventExecutor(a.queue, a.engine, engineConf.PollInterval, engineConf.PollBatch, &a.wg),
		executor.NewRetryExecutor(a.delayQueue, a.engine, engineConf.PollInterval, &a.wg),
		executor.NewDelayExecutor(a.delayQueue, a.engine, engineConf.PollInterval, &a.wg),
	}
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.eventBus, a.ticketDao, a.userDao, a.runDao)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	a.engine.Start()
	for _, ex := range a.executors {
		if err := ex.Start(); err != nil {
			return err
		}
	}
	go func() {
		a.httpServer.Start()
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
	}
	for _, ex := range a.executors {
		shutdown = append(shutdown, ex.Stop)
	}
	shutdown = append(shutdown, a.engine.Stop)
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	a.wg.Wait()
	return nil
}
